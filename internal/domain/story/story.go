// Package story holds the Story aggregate: one immutable STAR career anecdote.
package story

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	slugStrip   = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	metricRegex = regexp.MustCompile(`(?i)(\b\d{1,3}\s?%|\$\s?\d[\d,.]*\b|\b\d+x\b|\b\d+(?:\.\d+)?\s?(pts|pp|bps)\b)`)
)

// FiveP is the Person/Place/Purpose/Performance/Process summary of a story.
type FiveP struct {
	Person      string
	Place       string
	Purpose     string
	Performance []string
	Process     []string
	Summary     string // curated one-paragraph summary, optional
}

// Fields is the canonical schema every corpus record is normalized into.
type Fields struct {
	ID           string
	Title        string
	Client       string
	Employer     string
	Division     string
	Role         string
	Industry     string
	Category     string
	SubCategory  string
	Theme        string
	Solution     string
	UseCases     []string
	Competencies []string
	Situation    []string
	Task         []string
	Action       []string
	Result       []string
	FiveP        FiveP
	Tags         []string
	Personas     []string
	StartDate    string
	EndDate      string
}

// Story is an immutable career anecdote keyed by a stable id.
type Story struct {
	f       Fields
	content string
	theme   string
}

// New validates and creates a Story.
// Title is required. ID defaults to MakeID(title, client).
// At least one narrative field (STAR or 5P) must be non-empty.
func New(f Fields) (Story, error) {
	f = clean(f)
	if f.Title == "" {
		return Story{}, fmt.Errorf("title is required")
	}
	if f.ID == "" {
		f.ID = MakeID(f.Title, f.Client)
	}
	if !hasNarrative(f) {
		return Story{}, fmt.Errorf("story %q has no narrative content", f.ID)
	}
	return Story{f: f, content: buildContent(f), theme: InferTheme(f.SubCategory, f.Theme)}, nil
}

// MakeID derives the stable identifier from title and client.
func MakeID(title, client string) string {
	return Slug(title) + "|" + Slug(client)
}

// Slug lowercases, drops punctuation and joins words with hyphens.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "")
	return slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
}

// ID returns the story identifier.
func (s *Story) ID() string { return s.f.ID }

// Title returns the story title.
func (s *Story) Title() string { return s.f.Title }

// Client returns the client the work was delivered for.
func (s *Story) Client() string { return s.f.Client }

// Employer returns the employer at the time.
func (s *Story) Employer() string { return s.f.Employer }

// Division returns the employer division.
func (s *Story) Division() string { return s.f.Division }

// Role returns the role held.
func (s *Story) Role() string { return s.f.Role }

// Industry returns the client industry.
func (s *Story) Industry() string { return s.f.Industry }

// Category returns the top-level category.
func (s *Story) Category() string { return s.f.Category }

// SubCategory returns the domain sub-category.
func (s *Story) SubCategory() string { return s.f.SubCategory }

// Solution returns the "Solution / Offering" capability label.
func (s *Story) Solution() string { return s.f.Solution }

// Situation returns the Situation paragraphs.
func (s *Story) Situation() []string { return slices.Clone(s.f.Situation) }

// Task returns the Task paragraphs.
func (s *Story) Task() []string { return slices.Clone(s.f.Task) }

// Action returns the Action paragraphs.
func (s *Story) Action() []string { return slices.Clone(s.f.Action) }

// Result returns the Result paragraphs.
func (s *Story) Result() []string { return slices.Clone(s.f.Result) }

// Tags returns the public tags.
func (s *Story) Tags() []string { return slices.Clone(s.f.Tags) }

// Personas returns the audience personas.
func (s *Story) Personas() []string { return slices.Clone(s.f.Personas) }

// Fields returns a deep copy of the canonical record.
func (s *Story) Fields() Fields { return cloneFields(s.f) }

// Content returns the text blob the story is embedded from.
func (s *Story) Content() string { return s.content }

// Theme is one of Themes(), inferred from the sub-category.
func (s *Story) Theme() string { return s.theme }

// IsGenericClient reports whether the client is a placeholder ("Multiple clients", "Internal project").
func (s *Story) IsGenericClient() bool { return IsGenericClient(s.f.Client) }

// IsGenericClient reports whether a client value names no specific organization.
func IsGenericClient(client string) bool {
	c := strings.ToLower(strings.TrimSpace(client))
	return c == "" || strings.HasSuffix(c, "clients") || strings.HasSuffix(c, "project")
}

// HasMetric reports whether the outcome text quotes a number (%, $, Nx, pts/pp/bps).
func (s *Story) HasMetric() bool {
	return len(s.Metrics()) > 0
}

// Metrics returns the outcome sentences that quote a number.
func (s *Story) Metrics() []string {
	var out []string
	candidates := append(slices.Clone(s.f.Result), s.f.FiveP.Performance...)
	candidates = append(candidates, s.f.FiveP.Summary)
	for _, c := range candidates {
		if metricRegex.MatchString(c) {
			out = append(out, c)
		}
	}
	return out
}

// Summary returns the curated 5P summary, or a Goal/Approach/Outcome line built
// from the narrative. max > 0 truncates at max runes with an ellipsis.
func (s *Story) Summary(max int) string {
	text := s.f.FiveP.Summary
	if text == "" {
		goal := s.f.FiveP.Purpose
		if goal == "" {
			goal = first(s.f.Task)
		}
		var parts []string
		if goal != "" {
			parts = append(parts, "Goal: "+goal)
		}
		if a := first(s.f.Action); a != "" {
			parts = append(parts, "Approach: "+a)
		}
		if r := first(s.f.Result); r != "" {
			parts = append(parts, "Outcome: "+r)
		}
		text = strings.Join(parts, " ")
	}
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func buildContent(f Fields) string {
	var lines []string
	add := func(label string, items []string, n int) {
		if len(items) > n {
			items = items[:n]
		}
		if len(items) > 0 {
			lines = append(lines, label+": "+strings.Join(items, " "))
		}
	}

	lines = append(lines, "Title: "+f.Title)

	var header strings.Builder
	if f.Theme != "" {
		header.WriteString("[" + f.Theme + "]")
	}
	if f.Industry != "" {
		if header.Len() > 0 {
			header.WriteString(" in ")
		}
		header.WriteString(f.Industry)
	}
	if f.SubCategory != "" {
		if header.Len() > 0 {
			header.WriteString(" ")
		}
		header.WriteString("(" + f.SubCategory + ")")
	}
	if header.Len() > 0 {
		lines = append(lines, header.String())
	}

	st := Story{f: f}
	if sum := st.Summary(0); sum != "" {
		lines = append(lines, "Summary: "+sum)
	}
	add("Situation", f.Situation, 2)
	add("Task", f.Task, 2)
	add("Action", f.Action, 3)
	add("Result", f.Result, 2)
	add("Process", f.FiveP.Process, 3)
	if len(f.Tags) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(f.Tags, ", "))
	}
	return strings.Join(lines, "\n")
}

func hasNarrative(f Fields) bool {
	return len(f.Situation)+len(f.Task)+len(f.Action)+len(f.Result) > 0 ||
		f.FiveP.Summary != "" || f.FiveP.Purpose != ""
}

func clean(f Fields) Fields {
	f = cloneFields(f)
	for _, p := range []*string{
		&f.ID, &f.Title, &f.Client, &f.Employer, &f.Division, &f.Role, &f.Industry,
		&f.Category, &f.SubCategory, &f.Theme, &f.Solution, &f.StartDate, &f.EndDate,
		&f.FiveP.Person, &f.FiveP.Place, &f.FiveP.Purpose, &f.FiveP.Summary,
	} {
		*p = strings.TrimSpace(*p)
	}
	for _, l := range []*[]string{
		&f.UseCases, &f.Competencies, &f.Situation, &f.Task, &f.Action, &f.Result,
		&f.FiveP.Performance, &f.FiveP.Process, &f.Tags, &f.Personas,
	} {
		*l = compact(*l)
	}
	return f
}

// compact trims entries and drops blanks.
func compact(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cloneFields(f Fields) Fields {
	f.UseCases = slices.Clone(f.UseCases)
	f.Competencies = slices.Clone(f.Competencies)
	f.Situation = slices.Clone(f.Situation)
	f.Task = slices.Clone(f.Task)
	f.Action = slices.Clone(f.Action)
	f.Result = slices.Clone(f.Result)
	f.FiveP.Performance = slices.Clone(f.FiveP.Performance)
	f.FiveP.Process = slices.Clone(f.FiveP.Process)
	f.Tags = slices.Clone(f.Tags)
	f.Personas = slices.Clone(f.Personas)
	return f
}

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
