package ask

import (
	"context"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/assemble"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/rerank"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/retrieve"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/router"
)

// Router classifies a query before any provider call.
type Router interface {
	Route(query string) router.Decision
}

// Retriever embeds and searches.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (retrieve.Outcome, error)
}

// Reranker boosts, filters and caps retrieved stories.
type Reranker interface {
	Rerank(results []result.Result, q rerank.Query, topK int) []result.Result
}

// Assembler renders the generator context.
type Assembler interface {
	Assemble(results []result.Result) assemble.Context
}
