package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubEmbedder struct {
	calls []string
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: 2, TotalTokens: 2}, nil
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchCalls int
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: 7}, nil
}

func TestEmbedAll_FallbackSumsUsage(t *testing.T) {
	e := &stubEmbedder{}
	res, err := EmbedAll(context.Background(), e, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.calls) != 3 {
		t.Fatalf("expected 3 single calls, got %d", len(e.calls))
	}
	if res.TotalTokens != 6 || res.PromptTokens != 6 {
		t.Errorf("expected 6 tokens, got prompt=%d total=%d", res.PromptTokens, res.TotalTokens)
	}
	if res.Embeddings[2][0] != 3 {
		t.Errorf("expected order preserved, got %v", res.Embeddings)
	}
}

func TestEmbedAll_PrefersBatch(t *testing.T) {
	e := &stubBatchEmbedder{}
	res, err := EmbedAll(context.Background(), e, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.batchCalls != 1 || len(e.calls) != 0 {
		t.Errorf("expected one batch call and no single calls, got batch=%d single=%d", e.batchCalls, len(e.calls))
	}
	if res.TotalTokens != 7 {
		t.Errorf("expected batch usage, got %d", res.TotalTokens)
	}
}

func TestEmbedAll_ErrorStopsEarly(t *testing.T) {
	innerErr := errors.New("provider down")
	e := &stubEmbedder{err: innerErr}
	_, err := EmbedAll(context.Background(), e, []string{"a", "b"})
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if len(e.calls) != 1 {
		t.Errorf("expected to stop after first failure, got %d calls", len(e.calls))
	}
}

func TestGenerationRequest_Prompt(t *testing.T) {
	p := GenerationRequest{Context: "Story 1: X", Query: "what did you do?"}.Prompt()
	if want := "Story 1: X"; !strings.Contains(p, want) {
		t.Errorf("prompt missing context: %q", p)
	}
	if want := "User Question: what did you do?"; !strings.Contains(p, want) {
		t.Errorf("prompt missing question: %q", p)
	}
}

func TestUsage_NilSafe(t *testing.T) {
	var u *Usage
	u.AddEmbedding(3)
	u.AddGeneration(4)

	ctx, got := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbedding(0)
	UsageFromContext(ctx).AddGeneration(12)
	if !got.EmbeddingCalled || got.GenerationTokens != 12 {
		t.Errorf("unexpected usage: %+v", got)
	}
}
