package router

import "github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"

// Vocabulary is the set of tokens the corpus can answer about.
type Vocabulary map[string]struct{}

// BuildVocabulary collects tokens from titles, clients, roles, industries,
// categories, sub-categories and public tags.
func BuildVocabulary(stories []story.Story) Vocabulary {
	v := make(Vocabulary)
	add := func(text string) {
		for _, t := range Tokenize(text) {
			v[t] = struct{}{}
		}
	}
	for i := range stories {
		s := &stories[i]
		add(s.Title())
		add(s.Client())
		add(s.Role())
		add(s.Industry())
		add(s.Category())
		add(s.SubCategory())
		for _, tag := range s.Tags() {
			add(tag)
		}
	}
	return v
}

// Contains reports whether token is known.
func (v Vocabulary) Contains(token string) bool {
	_, ok := v[token]
	return ok
}

// Overlap is the share of unique non-stopword query tokens found in the vocabulary.
// A query with no such tokens has overlap 0.
func (v Vocabulary) Overlap(query string) float64 {
	toks := contentTokens(query)
	if len(toks) == 0 {
		return 0
	}
	hits := 0
	for _, t := range toks {
		if v.Contains(t) {
			hits++
		}
	}
	return float64(hits) / float64(len(toks))
}
