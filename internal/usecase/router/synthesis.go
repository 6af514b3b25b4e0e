package router

import "regexp"

var synthesisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcommon (themes?|threads?|patterns?)\b`),
	regexp.MustCompile(`(?i)\bpatterns?\b.*\bacross\b`),
	regexp.MustCompile(`(?i)\bacross (all |your |his |the |my )?(work|career|experience|stories|projects|roles|clients|engagements)\b`),
	regexp.MustCompile(`(?i)\bwhat makes (you|him|matt) (different|unique|stand out)\b`),
	regexp.MustCompile(`(?i)\brecurring (themes?|patterns?)\b`),
	regexp.MustCompile(`(?i)\b(big[- ]picture|overall|throughout (your|his) career)\b`),
	regexp.MustCompile(`(?i)\b(themes?|trends?)\b.*\b(career|work|portfolio)\b`),
	regexp.MustCompile(`(?i)\b(compare|comparison|contrast)\b`),
	regexp.MustCompile(`(?i)\b(leadership|management) (style|philosophy)\b`),
}

// isSynthesis reports whether the query asks for cross-story themes.
func isSynthesis(query string) bool {
	for _, re := range synthesisPatterns {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}
