// Package anthropic answers with the Claude Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
)

const provider = "anthropic"

// Config holds the Claude generation settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// Generator implements domain.Generator.
type Generator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	logger      *zap.Logger
}

// NewGenerator creates a Claude generator. SDK retries are disabled; the
// generation decorator owns retry policy.
func NewGenerator(cfg *Config) *Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Generate sends the system instructions and the rendered prompt as one user turn.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt())),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	rsp, err := g.client.Messages.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, g.model, "api_error").Inc()
		return domain.GenerationResult{}, wrapError(err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, g.model, "empty_response").Inc()
		return domain.GenerationResult{}, fmt.Errorf("no text in Claude response: %w", domain.ErrGenerationProviderError)
	}

	in, out := int(rsp.Usage.InputTokens), int(rsp.Usage.OutputTokens)
	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.model).Observe(duration.Seconds())
	if in > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.model, "prompt").Add(float64(in))
	}
	if out > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.model, "completion").Add(float64(out))
	}

	g.logger.Debug("Generation completed",
		zap.String("provider", provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.String("stop_reason", string(rsp.StopReason)),
	)

	return domain.GenerationResult{
		Text:             text,
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
	}, nil
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("claude API error %d: %w: %w", apiErr.StatusCode, domain.ErrGenerationProviderError, err)
	}
	return fmt.Errorf("claude request failed: %w: %w", domain.ErrGenerationProviderError, err)
}
