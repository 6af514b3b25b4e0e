package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/db"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
)

type fakeEmbedder struct {
	result      domain.EmbeddingResult
	err         error
	batchResult domain.BatchEmbeddingResult
	batchErr    error
	batchCalls  int
	batchTexts  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return f.result, f.err
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchCalls++
	f.batchTexts = append(f.batchTexts, texts...)
	if f.batchErr != nil {
		return domain.BatchEmbeddingResult{}, f.batchErr
	}
	if f.batchResult.Embeddings != nil {
		return f.batchResult, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = f.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: f.result.PromptTokens * len(texts),
		TotalTokens:  f.result.TotalTokens * len(texts),
	}, nil
}

// fakeKVStore implements the consumer interface for tests.
type fakeKVStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	ttlCalls []time.Duration
}

func (f *fakeKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getFn != nil {
		return f.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (f *fakeKVStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setFn != nil {
		return f.setFn(ctx, key, value)
	}
	return nil
}

func (f *fakeKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.ttlCalls = append(f.ttlCalls, ttl)
	return f.Set(ctx, key, value)
}

func newTestCachedEmbedder(t *testing.T, inner *fakeEmbedder) (*CachedEmbedder, *fakeKVStore) {
	t.Helper()
	fs := &fakeKVStore{}
	ce := New(inner, fs, "test-model", 0, nil, zap.NewNop())
	return ce, fs
}
