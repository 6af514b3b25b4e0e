package retrieve

import (
	"context"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/index"
)

// Embedder vectorizes the query text with the corpus embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher is the vector index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]index.Hit, error)
}

// StoryReader resolves hit ids to stories.
type StoryReader interface {
	Get(id string) (story.Story, error)
}
