// Package filter holds the explicit Query Context constraints applied as a hard
// pre-filter before reranking.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

// MaxValuesPerField caps the number of values accepted for one constraint.
const MaxValuesPerField = 32

// Params are the raw constraint values as received from a caller.
type Params struct {
	Personas   []string
	Clients    []string
	Domains    []string // sub-categories
	Roles      []string
	Tags       []string
	Industry   string
	Capability string // "Solution / Offering"
	Keywords   string // every token must appear in the story text
	HasMetric  bool
}

// Constraints is a validated, normalized set of hard filters. All active
// constraints must hold (AND); values inside one constraint are alternatives (OR).
// Comparisons are case-insensitive on trimmed values.
type Constraints struct {
	personas   []string
	clients    []string
	domains    []string
	roles      []string
	tags       []string
	industry   string
	capability string
	keywords   []string
	hasMetric  bool
}

// New validates and normalizes constraint values. The zero Params yields an empty set.
func New(p Params) (Constraints, error) {
	lists := map[string][]string{
		"personas": p.Personas, "clients": p.Clients, "domains": p.Domains,
		"roles": p.Roles, "tags": p.Tags,
	}
	for name, vals := range lists {
		if len(vals) > MaxValuesPerField {
			return Constraints{}, fmt.Errorf("too many %s values (max %d)", name, MaxValuesPerField)
		}
	}

	return Constraints{
		personas:   normalize(p.Personas),
		clients:    normalize(p.Clients),
		domains:    normalize(p.Domains),
		roles:      normalize(p.Roles),
		tags:       normalize(p.Tags),
		industry:   fold(p.Industry),
		capability: fold(p.Capability),
		keywords:   strings.Fields(fold(p.Keywords)),
		hasMetric:  p.HasMetric,
	}, nil
}

// IsEmpty reports whether no constraint is active.
func (c Constraints) IsEmpty() bool {
	return len(c.Active()) == 0
}

// Active lists the names of the active constraints, in a fixed order.
func (c Constraints) Active() []string {
	var out []string
	if len(c.personas) > 0 {
		out = append(out, "persona")
	}
	if len(c.clients) > 0 {
		out = append(out, "client")
	}
	if len(c.domains) > 0 {
		out = append(out, "domain")
	}
	if len(c.roles) > 0 {
		out = append(out, "role")
	}
	if len(c.tags) > 0 {
		out = append(out, "tag")
	}
	if c.industry != "" {
		out = append(out, "industry")
	}
	if c.capability != "" {
		out = append(out, "capability")
	}
	if len(c.keywords) > 0 {
		out = append(out, "keywords")
	}
	if c.hasMetric {
		out = append(out, "has_metric")
	}
	return out
}

// Tags returns the normalized tag constraint values.
func (c Constraints) Tags() []string { return slices.Clone(c.tags) }

// Domains returns the normalized sub-category constraint values.
func (c Constraints) Domains() []string { return slices.Clone(c.domains) }

// Matches reports whether the story satisfies every active constraint.
func (c Constraints) Matches(s *story.Story) bool {
	if len(c.personas) > 0 && !intersects(c.personas, s.Personas()) {
		return false
	}
	if len(c.clients) > 0 && !slices.Contains(c.clients, fold(s.Client())) {
		return false
	}
	if len(c.domains) > 0 && !slices.Contains(c.domains, fold(s.SubCategory())) {
		return false
	}
	if len(c.roles) > 0 && !slices.Contains(c.roles, fold(s.Role())) {
		return false
	}
	if len(c.tags) > 0 && !intersects(c.tags, s.Tags()) {
		return false
	}
	if c.industry != "" && c.industry != fold(s.Industry()) {
		return false
	}
	if c.capability != "" && c.capability != fold(s.Solution()) {
		return false
	}
	if len(c.keywords) > 0 {
		text := strings.ToLower(s.Content())
		for _, kw := range c.keywords {
			if !strings.Contains(text, kw) {
				return false
			}
		}
	}
	if c.hasMetric && !s.HasMetric() {
		return false
	}
	return true
}

func intersects(want, have []string) bool {
	for _, h := range have {
		if slices.Contains(want, fold(h)) {
			return true
		}
	}
	return false
}

func normalize(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = fold(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
