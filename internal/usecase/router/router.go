// Package router decides, before any embedding call, whether a query can be
// answered from the corpus and whether it asks about one story or many.
package router

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/intent"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
)

// CategoryEmpty labels blank queries.
const CategoryEmpty = "empty"

// Kind is the routing outcome.
type Kind string

// Routing outcomes.
const (
	Accept Kind = "accept"
	Reject Kind = "reject"
)

// Decision is the router's verdict. Intent is set on Accept, Category on Reject.
type Decision struct {
	Kind     Kind
	Intent   intent.Intent
	Category string
	Overlap  float64
	Rule     string
	Entity   *Entity
}

// Accepted reports whether retrieval should run.
func (d Decision) Accepted() bool { return d.Kind == Accept }

// Config tunes the router.
type Config struct {
	MinOverlap float64
	Rules      []Rule
}

// Router is immutable after New and safe for concurrent use.
type Router struct {
	vocab      Vocabulary
	entities   *EntityDetector
	rules      []Rule
	minOverlap float64
	logger     *zap.Logger
}

// New builds a router over the corpus. Nil Rules means DefaultRules.
func New(stories []story.Story, cfg Config, logger *zap.Logger) *Router {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	minOverlap := cfg.MinOverlap
	if minOverlap <= 0 {
		minOverlap = domain.DefaultMinOverlap
	}
	return &Router{
		vocab:      BuildVocabulary(stories),
		entities:   NewEntityDetector(stories),
		rules:      rules,
		minOverlap: minOverlap,
		logger:     logger,
	}
}

// Route classifies a query. A query is rejected only when a blocklist rule
// matches and vocabulary overlap is below the minimum; everything else is accepted.
func (r *Router) Route(query string) Decision {
	d := r.route(query)
	label := string(d.Intent)
	if d.Kind == Reject {
		label = d.Category
	}
	metrics.RouterDecisionsTotal.WithLabelValues(string(d.Kind), label).Inc()

	r.logger.Debug("Query routed",
		zap.String("decision", string(d.Kind)),
		zap.String("label", label),
		zap.Float64("overlap", d.Overlap),
		zap.String("rule", d.Rule),
	)
	return d
}

func (r *Router) route(query string) Decision {
	q := strings.TrimSpace(query)
	if q == "" {
		return Decision{Kind: Reject, Category: CategoryEmpty}
	}

	overlap := r.vocab.Overlap(q)

	for _, rule := range r.rules {
		if !rule.Pattern.MatchString(q) {
			continue
		}
		if overlap < r.minOverlap {
			return Decision{
				Kind:     Reject,
				Category: rule.Category,
				Overlap:  overlap,
				Rule:     rule.Pattern.String(),
			}
		}
		// Blocklist hit but the query also names corpus terms: ambiguous, let it through.
		break
	}

	in := intent.Single
	if isSynthesis(q) {
		in = intent.Synthesis
	}
	return Decision{
		Kind:    Accept,
		Intent:  in,
		Overlap: overlap,
		Entity:  r.entities.Detect(q),
	}
}
