package result

import "github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"

// Result is a Ranked Result: a story with its cosine similarity and the
// reranking signals derived from it. Not persisted.
type Result struct {
	story       story.Story
	score       float64
	rank        int
	tagOverlap  int
	subCategory bool
	entity      bool
	composite   float64
}

// New creates a result at the given similarity rank (0 = best).
// The composite score starts equal to the similarity score.
func New(s story.Story, score float64, rank int) Result {
	return Result{story: s, score: score, rank: rank, composite: score}
}

// WithBoosts returns a copy carrying the reranking signals and composite score.
func (r Result) WithBoosts(tagOverlap int, subCategory, entity bool, composite float64) Result {
	r.tagOverlap = tagOverlap
	r.subCategory = subCategory
	r.entity = entity
	r.composite = composite
	return r
}

// Story returns the matched story.
func (r *Result) Story() *story.Story { return &r.story }

// ID returns the story identifier.
func (r *Result) ID() string { return r.story.ID() }

// Score returns the raw cosine similarity.
func (r *Result) Score() float64 { return r.score }

// Rank returns the position in raw similarity order.
func (r *Result) Rank() int { return r.rank }

// TagOverlap returns the number of matched tags.
func (r *Result) TagOverlap() int { return r.tagOverlap }

// SubCategoryMatch reports an exact sub-category match.
func (r *Result) SubCategoryMatch() bool { return r.subCategory }

// EntityMatch reports that the story belongs to an entity named in the query.
func (r *Result) EntityMatch() bool { return r.entity }

// Composite returns the reranking score.
func (r *Result) Composite() float64 { return r.composite }
