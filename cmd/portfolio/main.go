package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/config"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/db"
	dbRedis "github.com/mcpugmire1/llm-portfolio-assistant/internal/db/redis"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/index"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/index/qdrant"
	logpkg "github.com/mcpugmire1/llm-portfolio-assistant/internal/logger"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
	budgetrepo "github.com/mcpugmire1/llm-portfolio-assistant/internal/repository/budget"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/repository/corpus"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/repository/embcache"
	anthropicGen "github.com/mcpugmire1/llm-portfolio-assistant/internal/transport/anthropic"
	chiTransport "github.com/mcpugmire1/llm-portfolio-assistant/internal/transport/chi"
	googleGen "github.com/mcpugmire1/llm-portfolio-assistant/internal/transport/google"
	openaiTransport "github.com/mcpugmire1/llm-portfolio-assistant/internal/transport/openai"
	askuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/ask"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/assemble"
	budgetuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/budget"
	embeddinguc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/embedding"
	generationuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/generation"
	healthuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/health"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/rerank"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/retrieve"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/router"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/version"
)

// searchIndex is what the server needs from either index backend.
type searchIndex interface {
	retrieve.Searcher
	healthuc.IndexCounter
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting portfolio assistant",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_backend", cfg.Index.Backend),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	stories, err := corpus.Load(cfg.Data.CorpusPath)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded", zap.String("path", cfg.Data.CorpusPath), zap.Int("stories", stories.Len()))

	idx, closeIndex, err := openIndex(ctx, &cfg, stories, logger)
	if err != nil {
		logger.Fatal("Failed to open vector index", zap.Error(err))
	}
	defer closeIndex()

	// KV store is optional: without it there is no embedding cache and budget
	// counters live in memory.
	var store db.Store
	if cfg.Database.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create KV store", zap.Error(err))
		}
		defer store.Close()

		readyTimeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readyTimeout); err != nil {
			logger.Fatal("KV store not ready", zap.Error(err))
		}
		logger.Info("Connected to KV store", zap.Strings("addrs", cfg.Database.Addrs))
	}

	// Single tracker shared by embedding and generation.
	// Pass nil interfaces (not typed nil pointers) when the budget is off.
	var budgetEmb embeddinguc.BudgetChecker
	var budgetGen generationuc.BudgetChecker
	if cfg.Budget.Enabled() {
		tracker := budgetuc.New("tokens", cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit,
			budgetuc.Action(cfg.Budget.Action), logger)
		if store != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		}
		budgetEmb, budgetGen = tracker, tracker
	}

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := buildEmbedder(&cfg, baseEmbedder, store, budgetEmb, logger)

	generator, closeGen, err := buildGenerator(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}
	defer closeGen()
	instrumentedGen := generationuc.NewInstrumentedGenerator(generator, budgetGen, generationuc.Config{
		Provider:  cfg.Generation.Provider,
		Model:     cfg.Generation.Model,
		Timeout:   cfg.Generation.Timeout(),
		Retries:   cfg.Generation.RetryCount(),
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  4 * time.Second,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("generation_model", cfg.Generation.Model),
	)

	var rules []router.Rule
	if cfg.Data.RulesPath != "" {
		rules, err = router.LoadRules(cfg.Data.RulesPath, logger)
		if err != nil {
			logger.Fatal("Failed to load router rules", zap.Error(err))
		}
	}

	all := stories.All()
	askSvc := askuc.New(
		router.New(all, router.Config{MinOverlap: cfg.Retrieval.MinOverlap, Rules: rules}, logger),
		retrieve.New(embedder, idx, stories, retrieve.Config{
			DefaultK:       cfg.Retrieval.K,
			MinSimilarity:  cfg.Retrieval.MinSimilarity,
			ConfidenceLow:  cfg.Retrieval.ConfidenceLow,
			ConfidenceHigh: cfg.Retrieval.ConfidenceHigh,
			EmbedTimeout:   cfg.Embedding.Timeout(),
			EmbedRetries:   cfg.Embedding.RetryCount(),
			RetryBaseDelay: 200 * time.Millisecond,
		}),
		rerank.New(rerank.Config{
			TagWeight:         *cfg.Rerank.TagWeight,
			SubCategoryWeight: *cfg.Rerank.SubCategoryWeight,
			EntityWeight:      *cfg.Rerank.EntityWeight,
			PerClientCap:      cfg.Rerank.ClientCap(),
		}, all),
		assemble.New(cfg.Assemble.ContextBudget),
		instrumentedGen,
		askuc.Config{
			RetrieveK:           cfg.Retrieval.K,
			SynthesisRetrieveK:  cfg.Retrieval.SynthesisK,
			RerankTopK:          cfg.Rerank.TopK,
			SynthesisRerankTopK: cfg.Rerank.SynthesisTopK,
			SynthesisClientCap:  cfg.Rerank.ClientCap(),
			Messages:            askuc.Messages{Owner: cfg.Data.Owner},
		},
	)

	var kv healthuc.Pinger
	if store != nil {
		kv = store
	}
	healthSvc := healthuc.New(stories, idx, kv, baseEmbedder)

	server := chiTransport.NewServer(askSvc, stories, healthSvc)
	handler := chiTransport.NewRouter(server, chiTransport.Options{
		APIKeys: cfg.Auth.APIKeys,
		CORS: chiTransport.CORSOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			MaxAge:         cfg.CORS.MaxAgeSec,
		},
		Logger: logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openIndex opens the configured backend. The file index must align with the
// corpus; a stale index is a startup failure.
func openIndex(
	ctx context.Context, cfg *config.Config, stories *corpus.Corpus, logger *zap.Logger,
) (searchIndex, func(), error) {
	switch cfg.Index.Backend {
	case "qdrant":
		q := cfg.Index.Qdrant
		s, err := qdrant.New(qdrant.Config{Host: q.Host, Port: q.Port, APIKey: q.APIKey, Collection: q.Collection})
		if err != nil {
			return nil, nil, fmt.Errorf("connect qdrant: %w", err)
		}
		n, err := s.Count(ctx)
		if err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("count qdrant points: %w", err)
		}
		if n != stories.Len() {
			logger.Warn("Qdrant collection size differs from corpus; re-run the indexer",
				zap.Int("points", n), zap.Int("stories", stories.Len()))
		}
		logger.Info("Qdrant index ready", zap.String("collection", q.Collection), zap.Int("points", n))
		return s, func() { _ = s.Close() }, nil
	default:
		flat, entries, err := index.Open(cfg.Index.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open index: %w", err)
		}
		if err := index.VerifyCorpus(entries, stories); err != nil {
			return nil, nil, fmt.Errorf("verify index: %w", err)
		}
		if flat.Dim() != cfg.Embedding.Dimensions {
			return nil, nil, fmt.Errorf("index dim %d, embedding dim %d: %w",
				flat.Dim(), cfg.Embedding.Dimensions, domain.ErrVectorDimMismatch)
		}
		logger.Info("File index loaded", zap.String("dir", cfg.Index.Dir), zap.Int("vectors", flat.Len()))
		return flat, func() {}, nil
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	cfg *config.Config,
	base domain.Embedder,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if store != nil {
		embedder = embcache.New(base, store, cfg.Embedding.Model, cfg.Embedding.CacheTTL(),
			metrics.EmbeddingCacheTotal, logger)
	}
	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, budget, logger,
	)
}

// buildGenerator creates the configured provider. The OpenAI generator falls
// back to the embedding API key.
func buildGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.Generator, func(), error) {
	g := cfg.Generation
	noop := func() {}
	switch g.Provider {
	case "anthropic":
		return anthropicGen.NewGenerator(&anthropicGen.Config{
			APIKey:      g.APIKey,
			BaseURL:     g.BaseURL,
			Model:       g.Model,
			MaxTokens:   g.MaxTokens,
			Temperature: g.Temp(),
			Logger:      logger,
		}), noop, nil
	case "google":
		gen, err := googleGen.NewGenerator(ctx, &googleGen.Config{
			APIKey:      g.APIKey,
			Model:       g.Model,
			MaxTokens:   g.MaxTokens,
			Temperature: float32(g.Temp()),
			Logger:      logger,
		})
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // already wrapped
		}
		return gen, closer(gen, logger), nil
	default:
		apiKey, baseURL := g.APIKey, g.BaseURL
		if apiKey == "" {
			apiKey, baseURL = cfg.Embedding.APIKey, cfg.Embedding.BaseURL
		}
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			Config: openaiTransport.Config{
				APIKey:   apiKey,
				BaseURL:  baseURL,
				Model:    g.Model,
				Provider: g.Provider,
				Logger:   logger,
			},
			MaxTokens:   g.MaxTokens,
			Temperature: float32(g.Temp()),
		}), noop, nil
	}
}

func closer(c io.Closer, logger *zap.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}
