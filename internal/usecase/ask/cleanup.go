package ask

import (
	"regexp"
	"strings"
)

// Phrases that evaluate the owner instead of reporting what happened.
var metaCommentary = []string{
	`\bhis ability to\b`,
	`\b\w+'s ability to\b`,
	`\bthis demonstrates\b`,
	`\bthis reflects\b`,
	`\bthis showcases\b`,
	`\bthis illustrates\b`,
	`\bdemonstrates his\b`,
	`\breflects his\b`,
}

var (
	metaSentences = compileSentencePatterns(metaCommentary)
	multiSpace    = regexp.MustCompile(`[ \t]{2,}`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// compileSentencePatterns matches the whole sentence around each phrase.
func compileSentencePatterns(phrases []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		out[i] = regexp.MustCompile(`(?i)[^.!?\n]*` + p + `[^.!?\n]*[.!?]?`)
	}
	return out
}

// CleanAnswer drops sentences of meta-commentary and normalizes whitespace.
// If nothing would be left, the trimmed original is returned.
func CleanAnswer(text string) string {
	out := text
	for _, re := range metaSentences {
		out = re.ReplaceAllString(out, "")
	}
	out = multiSpace.ReplaceAllString(out, " ")
	out = extraNewlines.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)
	if out == "" {
		return strings.TrimSpace(text)
	}
	return out
}
