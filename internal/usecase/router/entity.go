package router

import (
	"sort"
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

// Entity fields, in detection priority order.
const (
	FieldClient   = "client"
	FieldEmployer = "employer"
	FieldDivision = "division"
	FieldTitle    = "title"
)

// Entity is a known organization or story title named in a query.
type Entity struct {
	Field string
	Value string
}

// Division values too common to treat as a named entity.
var excludedDivisions = map[string]struct{}{"technology": {}}

// Phrases that make a following entity the subject of a transition rather than a scope.
var exclusionPrefixes = []string{"after", "leaving", "before", "transition from", "left"}

type entityGroup struct {
	field  string
	values []string
}

// EntityDetector finds entities from the corpus in free text.
type EntityDetector struct {
	groups []entityGroup
}

// NewEntityDetector indexes clients, employers, divisions and titles.
func NewEntityDetector(stories []story.Story) *EntityDetector {
	sets := map[string]map[string]struct{}{
		FieldClient: {}, FieldEmployer: {}, FieldDivision: {}, FieldTitle: {},
	}
	for i := range stories {
		s := &stories[i]
		addEntity(sets[FieldClient], s.Client())
		addEntity(sets[FieldEmployer], s.Employer())
		if _, skip := excludedDivisions[strings.ToLower(s.Division())]; !skip {
			addEntity(sets[FieldDivision], s.Division())
		}
		if t := s.Title(); t != "" {
			sets[FieldTitle][t] = struct{}{}
		}
	}

	d := &EntityDetector{}
	for _, field := range []string{FieldClient, FieldEmployer, FieldDivision, FieldTitle} {
		d.groups = append(d.groups, entityGroup{field: field, values: longestFirst(sets[field])})
	}
	return d
}

func addEntity(set map[string]struct{}, v string) {
	if v == "" || story.IsGenericClient(v) {
		return
	}
	set[v] = struct{}{}
}

func longestFirst(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Detect returns the first entity named in query, or nil.
// An organization preceded by a transition phrase ("after Accenture") ends
// detection with no entity.
func (d *EntityDetector) Detect(query string) *Entity {
	q := strings.ToLower(query)
	for _, g := range d.groups {
		for _, v := range g.values {
			pos := strings.Index(q, strings.ToLower(v))
			if pos < 0 {
				continue
			}
			if g.field != FieldTitle && excludedContext(q[:pos]) {
				return nil
			}
			return &Entity{Field: g.field, Value: v}
		}
	}
	return nil
}

func excludedContext(prefix string) bool {
	prefix = strings.TrimRight(prefix, " ")
	if prefix == "" {
		return false
	}
	for _, p := range exclusionPrefixes {
		if prefix == p || strings.HasSuffix(prefix, " "+p) {
			return true
		}
	}
	return false
}
