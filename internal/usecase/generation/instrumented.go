// Package generation decorates a generation provider with the token budget,
// retries on transient failures, usage accounting and logging.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/logger"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/retry"
)

// Config bounds provider calls.
type Config struct {
	Provider  string
	Model     string
	Timeout   time.Duration
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// InstrumentedGenerator wraps a domain.Generator.
type InstrumentedGenerator struct {
	inner  domain.Generator
	budget BudgetChecker
	cfg    Config
}

// NewInstrumentedGenerator wraps a generator. budget may be nil.
func NewInstrumentedGenerator(inner domain.Generator, budget BudgetChecker, cfg Config) *InstrumentedGenerator {
	return &InstrumentedGenerator{inner: inner, budget: budget, cfg: cfg}
}

// Generate checks the budget once, then calls the provider with per-attempt
// timeout and backoff. Every failure other than budget exhaustion is reported
// as domain.ErrGenerationProviderError.
func (g *InstrumentedGenerator) Generate(
	ctx context.Context, req domain.GenerationRequest,
) (domain.GenerationResult, error) {
	log := logger.From(ctx)

	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			log.Warn("Generation budget exceeded",
				zap.String("provider", g.cfg.Provider),
				zap.Error(err),
			)
			return domain.GenerationResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	policy := retry.Policy{
		Retries:   g.cfg.Retries,
		BaseDelay: g.cfg.BaseDelay,
		MaxDelay:  g.cfg.MaxDelay,
		Timeout:   g.cfg.Timeout,
		Retryable: retryable,
	}

	start := time.Now()
	attempts := 0
	var res domain.GenerationResult
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		attempts++
		var err error
		res, err = g.inner.Generate(ctx, req)
		return err
	})
	duration := time.Since(start)

	if err != nil {
		log.Error("Generation failed",
			zap.String("provider", g.cfg.Provider),
			zap.String("model", g.cfg.Model),
			zap.Int("attempts", attempts),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrGenerationProviderError) {
			return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
		}
		return domain.GenerationResult{}, fmt.Errorf("generate: %w: %w", domain.ErrGenerationProviderError, err)
	}

	tokens := res.TotalTokens
	if tokens == 0 {
		tokens = res.PromptTokens + res.CompletionTokens
	}
	domain.UsageFromContext(ctx).AddGeneration(tokens)
	if g.budget != nil {
		g.budget.Record(int64(tokens))
	}

	log.Debug("Generation request completed",
		zap.String("provider", g.cfg.Provider),
		zap.String("model", g.cfg.Model),
		zap.Int("attempts", attempts),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", tokens),
	)
	return res, nil
}

func retryable(err error) bool {
	return !errors.Is(err, domain.ErrTokenBudgetExceeded) && !errors.Is(err, context.Canceled)
}
