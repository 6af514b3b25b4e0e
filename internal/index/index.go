// Package index provides the Vector Index: nearest-neighbor search over story
// embeddings by cosine similarity.
package index

import "context"

// Hit is one search result. Score is cosine similarity in [-1, 1]; higher is closer.
type Hit struct {
	ID    string
	Score float64
}

// Searcher is implemented by every index backend.
// Search returns at most k hits ordered by score desc. k <= 0 fails with domain.ErrInvalidK.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
}
