package request

import (
	"fmt"
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/filter"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 2000
	MaxTopK        = 20
)

// Request is the per-request Query Context: the raw query plus optional
// hard constraints. It is discarded once the response is produced.
type Request struct {
	query       string
	constraints filter.Constraints
	topK        int
}

// New validates a query. topK <= 0 means "use the intent default".
func New(query string, constraints filter.Constraints, topK int) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidQuery)
	}
	if len(q) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidQuery)
	}
	if topK > MaxTopK {
		return Request{}, fmt.Errorf("top_k must be at most %d: %w", MaxTopK, domain.ErrInvalidQuery)
	}
	if topK < 0 {
		topK = 0
	}
	return Request{query: q, constraints: constraints, topK: topK}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Constraints returns the hard pre-filter.
func (r *Request) Constraints() filter.Constraints { return r.constraints }

// TopK returns the requested number of final results (0 = default).
func (r *Request) TopK() int { return r.topK }
