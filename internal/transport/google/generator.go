// Package google answers with the Gemini API.
package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
)

const provider = "google"

// Config holds the Gemini generation settings.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// Generator implements domain.Generator.
type Generator struct {
	client *genai.Client
	cfg    Config
	logger *zap.Logger
}

// NewGenerator dials the Gemini API. Call Close on shutdown.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Generator{client: client, cfg: *cfg, logger: cfg.Logger}, nil
}

// Close releases the underlying connection.
func (g *Generator) Close() error {
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("close gemini client: %w", err)
	}
	return nil
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	model := g.client.GenerativeModel(g.cfg.Model)
	model.SetTemperature(g.cfg.Temperature)
	if g.cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.cfg.MaxTokens)) //nolint:gosec // bounded by config validation
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	start := time.Now()
	rsp, err := model.GenerateContent(ctx, genai.Text(req.Prompt()))
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.cfg.Model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, g.cfg.Model, "api_error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("gemini request failed: %w: %w", domain.ErrGenerationProviderError, err)
	}

	res, err := toResult(rsp)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.cfg.Model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(provider, g.cfg.Model, "empty_response").Inc()
		return domain.GenerationResult{}, err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.cfg.Model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.cfg.Model).Observe(duration.Seconds())
	if res.PromptTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.cfg.Model, "prompt").Add(float64(res.PromptTokens))
	}
	if res.CompletionTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.cfg.Model, "completion").Add(float64(res.CompletionTokens))
	}

	g.logger.Debug("Generation completed",
		zap.String("provider", provider),
		zap.String("model", g.cfg.Model),
		zap.Duration("duration", duration),
	)
	return res, nil
}

// toResult concatenates the text parts of the first candidate.
func toResult(rsp *genai.GenerateContentResponse) (domain.GenerationResult, error) {
	if rsp == nil || len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return domain.GenerationResult{}, fmt.Errorf("no candidates in gemini response: %w", domain.ErrGenerationProviderError)
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return domain.GenerationResult{}, fmt.Errorf("no text in gemini response: %w", domain.ErrGenerationProviderError)
	}

	res := domain.GenerationResult{Text: b.String()}
	if u := rsp.UsageMetadata; u != nil {
		res.PromptTokens = int(u.PromptTokenCount)
		res.CompletionTokens = int(u.CandidatesTokenCount)
		res.TotalTokens = int(u.TotalTokenCount)
	}
	return res, nil
}
