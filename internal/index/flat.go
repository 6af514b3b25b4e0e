package index

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
)

// Flat is an exact brute-force index using cosine similarity.
// It is built once and read-only afterwards, so concurrent Search calls are safe.
type Flat struct {
	ids  []string
	vecs [][]float32
	mags []float64
	dim  int
}

// Build creates a Flat index. All vectors must share one dimension and ids must be unique.
func Build(ids []string, vectors [][]float32) (*Flat, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	f := &Flat{}
	if len(ids) == 0 {
		return f, nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("empty vector for %q: %w", ids[0], domain.ErrVectorDimMismatch)
	}
	seen := make(map[string]struct{}, len(ids))
	mags := make([]float64, len(vectors))
	vecs := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %q has dim %d, want %d: %w",
				ids[i], len(v), dim, domain.ErrVectorDimMismatch)
		}
		if _, dup := seen[ids[i]]; dup {
			return nil, fmt.Errorf("duplicate id %q", ids[i])
		}
		seen[ids[i]] = struct{}{}
		vecs[i] = slices.Clone(v)
		mags[i] = magnitude(v)
	}

	f.ids = slices.Clone(ids)
	f.vecs = vecs
	f.mags = mags
	f.dim = dim
	return f, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.ids) }

// Count returns Len. It satisfies the same readiness check as remote backends.
func (f *Flat) Count(_ context.Context) (int, error) { return len(f.ids), nil }

// Dim returns the vector dimension, 0 for an empty index.
func (f *Flat) Dim() int { return f.dim }

// IDs returns indexed ids in insertion order.
func (f *Flat) IDs() []string { return slices.Clone(f.ids) }

// Search returns min(k, n) hits by cosine similarity. Ties keep insertion order.
// A zero-magnitude vector scores 0 against everything.
func (f *Flat) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k=%d: %w", k, domain.ErrInvalidK)
	}
	if len(f.ids) == 0 {
		return []Hit{}, nil
	}
	if len(vector) != f.dim {
		return nil, fmt.Errorf("query dim %d, index dim %d: %w", len(vector), f.dim, domain.ErrVectorDimMismatch)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	qm := magnitude(vector)
	hits := make([]Hit, len(f.ids))
	for i := range f.vecs {
		var s float64
		if qm > 0 && f.mags[i] > 0 {
			s = dot(vector, f.vecs[i]) / (qm * f.mags[i])
		}
		if math.IsNaN(s) {
			s = 0
		}
		hits[i] = Hit{ID: f.ids[i], Score: s}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
