// Package retrieve embeds a query, searches the vector index and applies the
// confidence gate to the best match.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/confidence"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/logger"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/retry"
)

// Config holds the gate thresholds (cosine similarity) and embedding call limits.
type Config struct {
	DefaultK       int
	MinSimilarity  float64
	ConfidenceLow  float64
	ConfidenceHigh float64
	EmbedTimeout   time.Duration
	EmbedRetries   int
	RetryBaseDelay time.Duration
}

// Outcome is a retrieval result. Results are in raw similarity order and are
// empty when Confidence is None.
type Outcome struct {
	Results    []result.Result
	Confidence confidence.Level
	TopScore   float64
	Usage      int
}

// Service runs retrieval.
type Service struct {
	embed   Embedder
	index   Searcher
	stories StoryReader
	cfg     Config
}

// New creates a retrieval service.
func New(embed Embedder, idx Searcher, stories StoryReader, cfg Config) *Service {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = domain.DefaultRetrieveK
	}
	return &Service{embed: embed, index: idx, stories: stories, cfg: cfg}
}

// Retrieve returns up to k stories for query. k <= 0 uses the configured default.
// Embedding failures surface as domain.ErrEmbeddingProviderError after retries.
func (s *Service) Retrieve(ctx context.Context, query string, k int) (Outcome, error) {
	if k <= 0 {
		k = s.cfg.DefaultK
	}
	if k > domain.MaxRetrieveK {
		k = domain.MaxRetrieveK
	}

	emb, err := s.embedQuery(ctx, query)
	if err != nil {
		return Outcome{}, err
	}

	hits, err := s.index.Search(ctx, emb.Embedding, k)
	if err != nil {
		return Outcome{}, fmt.Errorf("search index: %w", err)
	}

	log := logger.From(ctx)
	results := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.cfg.MinSimilarity {
			continue
		}
		st, err := s.stories.Get(h.ID)
		if err != nil {
			// Index and corpus are verified at startup; a miss here means drift.
			log.Warn("Indexed story missing from corpus", zap.String("story_id", h.ID), zap.Error(err))
			continue
		}
		results = append(results, result.New(st, h.Score, len(results)))
	}

	out := Outcome{Confidence: confidence.None, Usage: emb.TotalTokens}
	if len(results) > 0 {
		out.TopScore = results[0].Score()
		out.Confidence = confidence.Classify(out.TopScore, s.cfg.ConfidenceLow, s.cfg.ConfidenceHigh)
	}
	if out.Confidence != confidence.None {
		out.Results = results
	}

	metrics.RetrievalConfidenceTotal.WithLabelValues(string(out.Confidence)).Inc()
	metrics.RetrievalTopScore.Observe(out.TopScore)
	log.Debug("Retrieval completed",
		zap.Int("k", k),
		zap.Int("hits", len(hits)),
		zap.Int("kept", len(out.Results)),
		zap.Float64("top_score", out.TopScore),
		zap.String("confidence", string(out.Confidence)),
	)
	return out, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) (domain.EmbeddingResult, error) {
	var emb domain.EmbeddingResult
	policy := retry.Policy{
		Retries:   s.cfg.EmbedRetries,
		BaseDelay: s.cfg.RetryBaseDelay,
		Timeout:   s.cfg.EmbedTimeout,
		Retryable: retryable,
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		emb, err = s.embed.Embed(ctx, query)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenBudgetExceeded) || errors.Is(err, domain.ErrEmbeddingProviderError) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return emb, nil
}

func retryable(err error) bool {
	return !errors.Is(err, domain.ErrTokenBudgetExceeded) && !errors.Is(err, context.Canceled)
}
