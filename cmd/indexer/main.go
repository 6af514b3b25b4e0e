package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/config"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/index"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/index/qdrant"
	logpkg "github.com/mcpugmire1/llm-portfolio-assistant/internal/logger"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/repository/corpus"
	openaiTransport "github.com/mcpugmire1/llm-portfolio-assistant/internal/transport/openai"
	embeddinguc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/embedding"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/version"
)

const embedBatchSize = 64

type globals struct {
	Env string `help:"Config environment (local, docker, prod)." env:"ENV" default:"local"`
}

type cli struct {
	globals

	Build   buildCmd         `cmd:"" help:"Embed the corpus and write the vector index."`
	Verify  verifyCmd        `cmd:"" help:"Check that an index matches the corpus."`
	Version kong.VersionFlag `help:"Print version."`
}

type buildCmd struct {
	Corpus  string        `help:"Corpus JSONL path (default from config)."`
	Out     string        `help:"Index output directory (default from config)."`
	Qdrant  bool          `help:"Also upsert vectors into the configured qdrant collection."`
	Timeout time.Duration `help:"Overall timeout." default:"10m"`
}

type verifyCmd struct {
	Corpus string `help:"Corpus JSONL path (default from config)."`
	Dir    string `help:"Index directory (default from config)."`
}

type runContext struct {
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	_ = godotenv.Load()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("indexer"),
		kong.Description("Builds and verifies the portfolio vector index."),
		kong.Vars{"version": version.Version},
	)

	cfg, err := config.Load(c.Env)
	kctx.FatalIfErrorf(err)

	logger, err := logpkg.New(c.Env, cfg.Logging.Level)
	kctx.FatalIfErrorf(err)
	defer func() { _ = logger.Sync() }()

	metrics.RegisterEmbeddingMetrics()

	kctx.FatalIfErrorf(kctx.Run(&runContext{cfg: cfg, logger: logger}))
}

// Run embeds every story in corpus order and writes index.bin and metadata.json.
func (b *buildCmd) Run(rc *runContext) error {
	cfg := rc.cfg
	corpusPath := or(b.Corpus, cfg.Data.CorpusPath)
	outDir := or(b.Out, cfg.Index.Dir)

	ctx, cancel := context.WithTimeout(context.Background(), b.Timeout)
	defer cancel()
	ctx = logpkg.WithContext(ctx, rc.logger)

	stories, err := corpus.Load(corpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	embedder := embeddinguc.NewInstrumentedEmbedder(
		openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     rc.logger,
		}),
		cfg.Embedding.Provider, cfg.Embedding.Model, nil, rc.logger,
	)

	all := stories.All()
	ids := make([]string, len(all))
	texts := make([]string, len(all))
	entries := make([]index.Entry, len(all))
	for i := range all {
		s := &all[i]
		ids[i] = s.ID()
		texts[i] = s.Content()
		entries[i] = index.Entry{
			ID:          s.ID(),
			Title:       s.Title(),
			Client:      s.Client(),
			Category:    s.Category(),
			SubCategory: s.SubCategory(),
		}
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	vectors := make([][]float32, 0, len(all))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		res, err := domain.EmbedAll(ctx, embedder, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed stories %d..%d: %w", start, end, err)
		}
		vectors = append(vectors, res.Embeddings...)
		rc.logger.Info("Embedded batch", zap.Int("from", start), zap.Int("to", end))
	}

	flat, err := index.Build(ids, vectors)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := index.Save(outDir, flat, entries); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	rc.logger.Info("Index written",
		zap.String("dir", outDir),
		zap.Int("vectors", flat.Len()),
		zap.Int("dim", flat.Dim()),
		zap.Int("embedding_tokens", usage.EmbeddingTokens),
	)

	if !b.Qdrant {
		return nil
	}
	return upsertQdrant(ctx, cfg.Index.Qdrant, flat.Dim(), entries, vectors, rc.logger)
}

func upsertQdrant(
	ctx context.Context, q config.QdrantConfig, dim int,
	entries []index.Entry, vectors [][]float32, logger *zap.Logger,
) error {
	s, err := qdrant.New(qdrant.Config{Host: q.Host, Port: q.Port, APIKey: q.APIKey, Collection: q.Collection})
	if err != nil {
		return fmt.Errorf("connect qdrant: %w", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.EnsureCollection(ctx, dim); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := s.Upsert(ctx, entries, vectors); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	logger.Info("Qdrant collection updated", zap.String("collection", q.Collection), zap.Int("points", len(entries)))
	return nil
}

// Run reports a stale or misaligned index as an error.
func (v *verifyCmd) Run(rc *runContext) error {
	stories, err := corpus.Load(or(v.Corpus, rc.cfg.Data.CorpusPath))
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	dir := or(v.Dir, rc.cfg.Index.Dir)
	flat, entries, err := index.Open(dir)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if err := index.VerifyCorpus(entries, stories); err != nil {
		return err //nolint:wrapcheck // carries the offending id
	}
	if flat.Dim() != rc.cfg.Embedding.Dimensions {
		return fmt.Errorf("index dim %d, configured %d: %w",
			flat.Dim(), rc.cfg.Embedding.Dimensions, domain.ErrVectorDimMismatch)
	}
	rc.logger.Info("Index is aligned with corpus", zap.String("dir", dir), zap.Int("vectors", flat.Len()))
	return nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
