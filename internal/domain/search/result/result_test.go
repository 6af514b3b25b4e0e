package result

import (
	"testing"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

func TestNewAndBoosts(t *testing.T) {
	s, err := story.New(story.Fields{Title: "T", Client: "C", Result: []string{"r"}})
	if err != nil {
		t.Fatalf("story.New: %v", err)
	}

	r := New(s, 0.42, 3)
	if r.ID() != "t|c" || r.Score() != 0.42 || r.Rank() != 3 {
		t.Fatalf("unexpected result: id=%s score=%v rank=%d", r.ID(), r.Score(), r.Rank())
	}
	if r.Composite() != 0.42 {
		t.Errorf("composite should start at similarity, got %v", r.Composite())
	}

	b := r.WithBoosts(2, true, false, 1.52)
	if b.TagOverlap() != 2 || !b.SubCategoryMatch() || b.EntityMatch() || b.Composite() != 1.52 {
		t.Errorf("unexpected boosts: %+v", b)
	}
	if r.Composite() != 0.42 {
		t.Error("WithBoosts must not mutate the receiver")
	}
	if b.Score() != 0.42 {
		t.Error("similarity must be preserved")
	}
}
