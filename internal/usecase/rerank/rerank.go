// Package rerank reorders retrieval hits by metadata signals and enforces
// per-client and per-theme diversity.
package rerank

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/filter"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

// Config holds the composite score weights and the per-client cap.
type Config struct {
	TagWeight         float64
	SubCategoryWeight float64
	EntityWeight      float64
	PerClientCap      int
}

// Query carries the request-side signals used for boosting.
type Query struct {
	Text        string
	Constraints filter.Constraints
	// EntityField/EntityValue name a corpus entity detected in Text ("client", "JP Morgan Chase").
	EntityField string
	EntityValue string
	// ClientCap overrides Config.PerClientCap when > 0.
	ClientCap int
	// ThemeCap limits results per story theme; 0 means no limit.
	ThemeCap int
	// ScopeToEntity keeps only stories matching the detected entity, as long
	// as at least one candidate does. A scoped query has no client cap.
	ScopeToEntity bool
}

// Reranker is immutable after New and safe for concurrent use.
type Reranker struct {
	cfg           Config
	subCategories []string // normalized, longest first
}

// New creates a reranker. stories supplies the sub-category names that a
// query can mention.
func New(cfg Config, stories []story.Story) *Reranker {
	set := make(map[string]struct{})
	for i := range stories {
		if sc := normalizeText(stories[i].SubCategory()); sc != "" {
			set[sc] = struct{}{}
		}
	}
	subs := make([]string, 0, len(set))
	for sc := range set {
		subs = append(subs, sc)
	}
	sort.Slice(subs, func(i, j int) bool {
		if len(subs[i]) != len(subs[j]) {
			return len(subs[i]) > len(subs[j])
		}
		return subs[i] < subs[j]
	})
	return &Reranker{cfg: cfg, subCategories: subs}
}

// Rerank applies the hard pre-filter, scores, sorts and caps results.
// Input must be in raw similarity order; ties in composite score keep that order.
func (r *Reranker) Rerank(results []result.Result, q Query, topK int) []result.Result {
	if topK <= 0 {
		topK = domain.DefaultRerankTopK
	}

	qText := " " + normalizeText(q.Text) + " "
	tagSet := make(map[string]struct{})
	for _, t := range q.Constraints.Tags() {
		tagSet[normalizeText(t)] = struct{}{}
	}
	wantSub := r.expectedSubCategories(qText, q.Constraints)

	scored := make([]result.Result, 0, len(results))
	for _, res := range results {
		s := res.Story()
		if !q.Constraints.Matches(s) {
			continue
		}
		overlap := tagOverlap(s.Tags(), qText, tagSet)
		_, sub := wantSub[normalizeText(s.SubCategory())]
		sub = sub && s.SubCategory() != ""
		ent := entityMatch(s, q.EntityField, q.EntityValue)

		composite := res.Score() + float64(overlap)*r.cfg.TagWeight
		if sub {
			composite += r.cfg.SubCategoryWeight
		}
		if ent {
			composite += r.cfg.EntityWeight
		}
		scored = append(scored, res.WithBoosts(overlap, sub, ent, composite))
	}

	scoped := false
	if q.ScopeToEntity {
		scored, scoped = scopeToEntity(scored)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Composite() != scored[j].Composite() {
			return scored[i].Composite() > scored[j].Composite()
		}
		return scored[i].Rank() < scored[j].Rank()
	})

	limit := r.cfg.PerClientCap
	if q.ClientCap > 0 {
		limit = q.ClientCap
	}
	if scoped {
		limit = 0
	}
	perClient := make(map[string]int)
	perTheme := make(map[string]int)
	out := make([]result.Result, 0, topK)
	for _, res := range scored {
		if len(out) == topK {
			break
		}
		key := clientKey(res.Story().Client())
		if limit > 0 && perClient[key] >= limit {
			continue
		}
		theme := res.Story().Theme()
		if q.ThemeCap > 0 && perTheme[theme] >= q.ThemeCap {
			continue
		}
		perClient[key]++
		perTheme[theme]++
		out = append(out, res)
	}
	return out
}

// scopeToEntity drops results that do not match the detected entity. With no
// match at all the results are returned unchanged.
func scopeToEntity(rs []result.Result) ([]result.Result, bool) {
	scoped := make([]result.Result, 0, len(rs))
	for _, res := range rs {
		if res.EntityMatch() {
			scoped = append(scoped, res)
		}
	}
	if len(scoped) == 0 {
		return rs, false
	}
	return scoped, true
}

func (r *Reranker) expectedSubCategories(qText string, c filter.Constraints) map[string]struct{} {
	want := make(map[string]struct{})
	for _, d := range c.Domains() {
		want[normalizeText(d)] = struct{}{}
	}
	for _, sc := range r.subCategories {
		if strings.Contains(qText, " "+sc+" ") {
			want[sc] = struct{}{}
		}
	}
	return want
}

func tagOverlap(tags []string, qText string, constraintTags map[string]struct{}) int {
	n := 0
	for _, t := range tags {
		nt := normalizeText(t)
		if nt == "" {
			continue
		}
		if _, ok := constraintTags[nt]; ok || strings.Contains(qText, " "+nt+" ") {
			n++
		}
	}
	return n
}

func entityMatch(s *story.Story, field, value string) bool {
	if value == "" {
		return false
	}
	var have string
	switch field {
	case "client":
		have = s.Client()
	case "employer":
		have = s.Employer()
	case "division":
		have = s.Division()
	case "title":
		have = s.Title()
	default:
		return false
	}
	return strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(value))
}

// clientKey folds case and whitespace. Generic and empty clients count as
// their own literal value.
func clientKey(client string) string {
	return strings.ToLower(strings.TrimSpace(client))
}

var nonWord = regexp.MustCompile(`[^a-z0-9+#]+`)

// normalizeText lowercases and reduces punctuation runs to single spaces.
func normalizeText(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(s), " "))
}
