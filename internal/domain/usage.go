package domain

import "context"

type usageKey struct{}

// Usage collects token usage for a single request.
// The handler puts a pointer into the context; decorators add to it; the handler
// reads it for response headers.
type Usage struct {
	EmbeddingTokens  int
	GenerationTokens int
	EmbeddingCalled  bool // true even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbedding records embedding tokens.
func (u *Usage) AddEmbedding(n int) {
	if u != nil {
		u.EmbeddingTokens += n
		u.EmbeddingCalled = true
	}
}

// AddGeneration records generation tokens.
func (u *Usage) AddGeneration(n int) {
	if u != nil {
		u.GenerationTokens += n
	}
}
