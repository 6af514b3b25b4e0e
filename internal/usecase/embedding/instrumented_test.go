package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/budget"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type fakeEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	batchCalls int
	batchSizes []int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return f.result, f.err
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchCalls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.batchErr != nil {
		return domain.BatchEmbeddingResult{}, f.batchErr
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

// plainEmbedder implements only Embedder, not BatchEmbedder.
type plainEmbedder struct {
	result domain.EmbeddingResult
	calls  int
}

func (p *plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	p.calls++
	return p.result, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
}

func TestInstrumentedEmbedder_RecordsUsage(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 100,
		TotalTokens:  100,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := p.Embed(ctx, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.EmbeddingTokens != 100 || !usage.EmbeddingCalled {
		t.Errorf("expected 100 embedding tokens recorded, got %+v", usage)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &fakeEmbedder{err: fmt.Errorf("api error")}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestInstrumentedEmbedder_BudgetRejection(t *testing.T) {
	tracker := budget.New("test-embed-reject", 100, 0, budget.ActionReject, zap.NewNop())
	tracker.Record(100)

	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", tracker, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrTokenBudgetExceeded) {
		t.Fatalf("expected ErrTokenBudgetExceeded, got %v", err)
	}
}

func TestInstrumentedEmbedder_RecordsBudget(t *testing.T) {
	tracker := budget.New("test-embed-record", 1000000, 10000000, budget.ActionReject, zap.NewNop())

	inner := &fakeEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 500,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", tracker, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracker.DailyUsed() != 500 {
		t.Errorf("expected 500 tokens recorded, got %d", tracker.DailyUsed())
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Chunks(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 2}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	texts := make([]string, MaxAPIBatchSize*2+5)
	for i := range texts {
		texts[i] = fmt.Sprintf("story %d", i)
	}

	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	if inner.batchCalls != 3 {
		t.Fatalf("expected 3 chunked calls, got %d", inner.batchCalls)
	}
	if inner.batchSizes[0] != MaxAPIBatchSize || inner.batchSizes[2] != 5 {
		t.Errorf("unexpected chunk sizes %v", inner.batchSizes)
	}
	if res.TotalTokens != 2*len(texts) {
		t.Errorf("expected %d tokens, got %d", 2*len(texts), res.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	p := NewInstrumentedEmbedder(&fakeEmbedder{}, "test", "test-model", nil, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected nil for empty input")
	}
}

func TestInstrumentedEmbedder_BatchEmbed_BudgetStopsMidway(t *testing.T) {
	tracker := budget.New("test-embed-midway", 10, 0, budget.ActionReject, zap.NewNop())
	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 1}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", tracker, zap.NewNop())

	texts := make([]string, MaxAPIBatchSize+1)
	_, err := p.BatchEmbed(context.Background(), texts)
	if !errors.Is(err, domain.ErrTokenBudgetExceeded) {
		t.Fatalf("expected ErrTokenBudgetExceeded on second chunk, got %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected the first chunk to run, got %d calls", inner.batchCalls)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_InnerError(t *testing.T) {
	inner := &fakeEmbedder{batchErr: fmt.Errorf("api error")}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	if _, err := p.BatchEmbed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	inner := &plainEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 5}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || inner.calls != 2 {
		t.Errorf("expected 2 fallback calls, got %d embeddings / %d calls", len(res.Embeddings), inner.calls)
	}
}
