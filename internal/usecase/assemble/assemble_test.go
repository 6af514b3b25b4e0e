package assemble

import (
	"strings"
	"testing"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

func mustResult(t *testing.T, id, client string, score, composite float64, rank int, body string) result.Result {
	t.Helper()
	s, err := story.New(story.Fields{
		ID: id, Title: "Title " + id, Client: client, Role: "Lead",
		Situation: []string{body}, Result: []string{"Grew revenue by 20%."},
	})
	if err != nil {
		t.Fatalf("story.New: %v", err)
	}
	return result.New(s, score, rank).WithBoosts(0, false, false, composite)
}

func TestAssemble_Format(t *testing.T) {
	rs := []result.Result{
		mustResult(t, "a", "Acme", 0.876, 0.9, 0, "short"),
		mustResult(t, "b", "", 0.5, 0.5, 1, "short"),
	}
	ctx := New(6000).Assemble(rs)

	blocks := strings.Split(ctx.Text, Delimiter)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "Story 1:\nTitle: Title a\nClient: Acme\nRole: Lead\nCategory: N/A\nTheme: Execution & Delivery\n\nSituation: short") {
		t.Errorf("unexpected block layout:\n%s", blocks[0])
	}
	if !strings.Contains(blocks[0], "Key Metrics: Grew revenue by 20%.") {
		t.Errorf("expected metrics line, got:\n%s", blocks[0])
	}
	if !strings.Contains(blocks[1], "Client: N/A") {
		t.Errorf("expected N/A for empty client, got:\n%s", blocks[1])
	}
	if ctx.Sources[0].Score != 0.88 {
		t.Errorf("expected score rounded to 0.88, got %f", ctx.Sources[0].Score)
	}
}

func TestAssemble_SourcesMatchText(t *testing.T) {
	long := strings.Repeat("x", 400)
	rs := []result.Result{
		mustResult(t, "a", "A", 0.9, 0.9, 0, long),
		mustResult(t, "b", "B", 0.8, 0.2, 1, long),
		mustResult(t, "c", "C", 0.7, 0.7, 2, long),
	}
	ctx := New(1200).Assemble(rs)

	blocks := strings.Split(ctx.Text, Delimiter)
	if len(blocks) != len(ctx.Sources) {
		t.Fatalf("%d blocks but %d sources", len(blocks), len(ctx.Sources))
	}
	for i, src := range ctx.Sources {
		if !strings.Contains(blocks[i], "Title: "+src.Title+"\n") {
			t.Errorf("source %d (%s) not in block %d", i, src.ID, i)
		}
	}
	if len(ctx.Text) > 1200 {
		t.Errorf("text exceeds budget: %d", len(ctx.Text))
	}
}

func TestAssemble_DropsLowestCompositeFirst(t *testing.T) {
	long := strings.Repeat("y", 400)
	rs := []result.Result{
		mustResult(t, "a", "A", 0.9, 0.9, 0, long),
		mustResult(t, "b", "B", 0.8, 0.2, 1, long),
		mustResult(t, "c", "C", 0.7, 0.7, 2, long),
	}
	ctx := New(1200).Assemble(rs)

	if ctx.Dropped != 1 || len(ctx.Sources) != 2 {
		t.Fatalf("expected one story dropped, got dropped=%d sources=%d", ctx.Dropped, len(ctx.Sources))
	}
	if ctx.Sources[0].ID != "a" || ctx.Sources[1].ID != "c" {
		t.Errorf("expected b dropped, got %+v", ctx.Sources)
	}
	if !strings.Contains(ctx.Text, "Story 2:\nTitle: Title c") {
		t.Error("numbering must be assigned after dropping")
	}
}

func TestAssemble_TieDropsLaterRank(t *testing.T) {
	long := strings.Repeat("z", 400)
	rs := []result.Result{
		mustResult(t, "a", "A", 0.9, 0.5, 0, long),
		mustResult(t, "b", "B", 0.8, 0.5, 1, long),
	}
	ctx := New(700).Assemble(rs)
	if len(ctx.Sources) != 1 || ctx.Sources[0].ID != "a" {
		t.Fatalf("expected later tie dropped, got %+v", ctx.Sources)
	}
}

func TestAssemble_NeverTruncates(t *testing.T) {
	rs := []result.Result{mustResult(t, "a", "A", 0.9, 0.9, 0, strings.Repeat("w", 500))}
	ctx := New(100).Assemble(rs)
	if !ctx.Empty() || ctx.Text != "" {
		t.Fatalf("expected oversized story dropped whole, got %q", ctx.Text)
	}
}

func TestAssemble_Empty(t *testing.T) {
	ctx := New(0).Assemble(nil)
	if !ctx.Empty() || ctx.Text != "" {
		t.Fatalf("expected empty context, got %+v", ctx)
	}
}
