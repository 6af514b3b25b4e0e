// Package corpus is the read-only Corpus Store: the fixed set of stories
// loaded from JSONL once at startup.
package corpus

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/validation"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// Corpus holds stories in file order. It has no mutation API and is safe for
// concurrent reads.
type Corpus struct {
	stories []story.Story
	byID    map[string]int
}

// Load reads a JSONL corpus file. Any failure is a *domain.DataLoadError.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, domain.NewDataLoadError(path, 0, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, path)
}

// Read parses JSONL from r. name labels errors.
func Read(r io.Reader, name string) (*Corpus, error) {
	c := &Corpus{byID: make(map[string]int)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}

		s, err := parseStory(data)
		if err != nil {
			return nil, domain.NewDataLoadError(name, line, err)
		}
		if prev, dup := c.byID[s.ID()]; dup {
			return nil, domain.NewDataLoadError(name, line,
				fmt.Errorf("duplicate story id %q (first at record %d)", s.ID(), prev+1))
		}
		c.byID[s.ID()] = len(c.stories)
		c.stories = append(c.stories, s)
	}
	if err := sc.Err(); err != nil {
		return nil, domain.NewDataLoadError(name, line+1, err)
	}
	if len(c.stories) == 0 {
		return nil, domain.NewDataLoadError(name, 0, errors.New("corpus is empty"))
	}
	return c, nil
}

func parseStory(data []byte) (story.Story, error) {
	rec, err := decodeRecord(data)
	if err != nil {
		return story.Story{}, err
	}
	if err := validation.Struct(rec); err != nil {
		return story.Story{}, err
	}
	s, err := story.New(rec.toFields())
	if err != nil {
		return story.Story{}, fmt.Errorf("build story: %w", err)
	}
	return s, nil
}

// Get returns a story by id. Fails with domain.ErrStoryNotFound.
func (c *Corpus) Get(id string) (story.Story, error) {
	i, ok := c.byID[id]
	if !ok {
		return story.Story{}, fmt.Errorf("story %q: %w", id, domain.ErrStoryNotFound)
	}
	return c.stories[i], nil
}

// All returns every story in file order. The slice is a copy.
func (c *Corpus) All() []story.Story {
	return slices.Clone(c.stories)
}

// Len returns the number of stories.
func (c *Corpus) Len() int { return len(c.stories) }

// Position returns the file-order index of a story id.
func (c *Corpus) Position(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}
