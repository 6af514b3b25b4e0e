package router

import (
	"regexp"
	"strings"
)

var wordRegex = regexp.MustCompile(`[A-Za-z0-9+#\-_.]+`)

// minTokenLen drops short tokens like "ai" or "at"; they carry no domain signal.
const minTokenLen = 3

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "then": {}, "else": {},
	"of": {}, "in": {}, "on": {}, "for": {}, "to": {}, "from": {}, "by": {}, "with": {}, "about": {},
	"how": {}, "what": {}, "why": {}, "when": {}, "where": {}, "who": {}, "whom": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"do": {}, "does": {}, "did": {}, "done": {}, "much": {}, "at": {}, "as": {},
	"into": {}, "over": {}, "under": {},
	"you": {}, "your": {}, "his": {}, "tell": {}, "can": {}, "have": {}, "has": {},
	"this": {}, "that": {}, "any": {}, "some": {}, "there": {},
}

// Tokenize lowercases text and returns tokens of at least three characters.
// Sentence punctuation at token edges is trimmed, so "work." becomes "work".
func Tokenize(text string) []string {
	raw := wordRegex.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.Trim(strings.ToLower(t), ".-_")
		if len(t) >= minTokenLen {
			out = append(out, t)
		}
	}
	return out
}

// contentTokens returns unique tokens with stopwords removed, in first-seen order.
func contentTokens(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Tokenize(text) {
		if _, stop := stopwords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
