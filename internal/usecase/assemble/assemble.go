// Package assemble formats reranked stories into the bounded context block
// handed to the generator, plus the matching source list.
package assemble

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

// Delimiter separates story blocks in the context text.
const Delimiter = "\n\n---\n\n"

const notAvailable = "N/A"

// Source attributes one story that appears in the context text.
type Source struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Client string  `json:"client"`
	Theme  string  `json:"theme"`
	Score  float64 `json:"score"`
}

// Context is the assembled generator input. Sources lists exactly the stories
// in Text, in the same order.
type Context struct {
	Text    string
	Sources []Source
	Dropped int
}

// Empty reports whether no story made it into the context.
func (c Context) Empty() bool { return len(c.Sources) == 0 }

// Assembler is stateless apart from its budget.
type Assembler struct {
	budget int
}

// New creates an assembler with a character budget. budget <= 0 uses the default.
func New(budget int) *Assembler {
	if budget <= 0 {
		budget = domain.DefaultContextBudget
	}
	return &Assembler{budget: budget}
}

// Assemble formats results in their given order. While the text exceeds the
// budget, the story with the lowest composite score is dropped (ties drop the
// later one). Blocks are never truncated; numbering follows the kept stories.
func (a *Assembler) Assemble(results []result.Result) Context {
	kept := make([]result.Result, len(results))
	copy(kept, results)

	blocks := make([]string, len(kept))
	for i := range kept {
		blocks[i] = formatBlock(kept[i].Story())
	}

	dropped := 0
	for len(kept) > 0 && textLen(blocks) > a.budget {
		victim := lowest(kept)
		kept = append(kept[:victim], kept[victim+1:]...)
		blocks = append(blocks[:victim], blocks[victim+1:]...)
		dropped++
	}

	parts := make([]string, len(kept))
	sources := make([]Source, len(kept))
	for i := range kept {
		parts[i] = header(i+1) + blocks[i]
		s := kept[i].Story()
		sources[i] = Source{
			ID:     s.ID(),
			Title:  s.Title(),
			Client: s.Client(),
			Theme:  s.Theme(),
			Score:  math.Round(kept[i].Score()*100) / 100,
		}
	}
	return Context{Text: strings.Join(parts, Delimiter), Sources: sources, Dropped: dropped}
}

func header(n int) string { return fmt.Sprintf("Story %d:\n", n) }

// textLen is the final length, including headers and delimiters.
func textLen(blocks []string) int {
	if len(blocks) == 0 {
		return 0
	}
	n := len(Delimiter) * (len(blocks) - 1)
	for i, b := range blocks {
		n += len(header(i+1)) + len(b)
	}
	return n
}

// lowest returns the index of the lowest composite score, preferring the later index on ties.
func lowest(rs []result.Result) int {
	idx := make([]int, len(rs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := rs[idx[a]].Composite(), rs[idx[b]].Composite()
		if ca != cb {
			return ca < cb
		}
		return idx[a] > idx[b]
	})
	return idx[0]
}

func formatBlock(s *story.Story) string {
	var b strings.Builder
	line := func(label, val string) {
		if strings.TrimSpace(val) == "" {
			val = notAvailable
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(val)
		b.WriteByte('\n')
	}

	line("Title", s.Title())
	line("Client", s.Client())
	line("Role", s.Role())
	line("Category", s.Category())
	line("Theme", s.Theme())
	b.WriteByte('\n')
	line("Situation", strings.Join(s.Situation(), " "))
	line("Task", strings.Join(s.Task(), " "))
	line("Action", strings.Join(s.Action(), " "))
	line("Result", strings.Join(s.Result(), " "))
	b.WriteByte('\n')
	line("Key Metrics", strings.Join(s.Metrics(), "; "))
	return strings.TrimRight(b.String(), "\n")
}
