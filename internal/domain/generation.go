package domain

import (
	"context"
	"strings"
)

// Generator turns assembled context into a free-text answer.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest is the generation service boundary: system instructions,
// assembled context and the user's question.
type GenerationRequest struct {
	System  string
	Context string
	Query   string
}

// GenerationResult is the generated answer plus token usage (zero when the provider omits it).
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Prompt renders the user message sent alongside the system instructions.
func (r GenerationRequest) Prompt() string {
	var b strings.Builder
	b.WriteString("Context from the portfolio:\n\n")
	b.WriteString(r.Context)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(r.Query)
	b.WriteString("\n\nAnswer using only the stories above. Cite clients and outcomes where relevant.")
	return b.String()
}
