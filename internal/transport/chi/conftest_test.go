package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/request"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	askuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/ask"
	healthuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/health"
)

type fakeAsker struct {
	answer      askuc.Answer
	inspection  askuc.Inspection
	err         error
	panicMsg    string
	embedTokens int
	genTokens   int
	last        request.Request
	calls       int
}

func (f *fakeAsker) Ask(ctx context.Context, req request.Request) (askuc.Answer, error) {
	f.calls++
	f.last = req
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	u := domain.UsageFromContext(ctx)
	if f.embedTokens > 0 {
		u.AddEmbedding(f.embedTokens)
	}
	u.AddGeneration(f.genTokens)
	return f.answer, f.err
}

func (f *fakeAsker) Retrieve(_ context.Context, req request.Request) (askuc.Inspection, error) {
	f.calls++
	f.last = req
	return f.inspection, f.err
}

type fakeStories struct {
	stories []story.Story
}

func (f *fakeStories) All() []story.Story { return f.stories }

func (f *fakeStories) Get(id string) (story.Story, error) {
	for _, s := range f.stories {
		if s.ID() == id {
			return s, nil
		}
	}
	return story.Story{}, domain.ErrStoryNotFound
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(_ context.Context) healthuc.Report { return f.report }

func mustStory(t *testing.T, title, client string, result ...string) story.Story {
	t.Helper()
	s, err := story.New(story.Fields{
		Title:       title,
		Client:      client,
		Role:        "Director",
		Category:    "Transformation",
		SubCategory: "Ways of Working",
		Tags:        []string{"agile"},
		Situation:   []string{"Delivery was slow."},
		Result:      result,
	})
	if err != nil {
		t.Fatalf("story.New: %v", err)
	}
	return s
}

func testStories(t *testing.T) []story.Story {
	t.Helper()
	return []story.Story{
		mustStory(t, "Modernized Payments Platform", "JP Morgan Chase", "Cut release time by 85%."),
		mustStory(t, "Agile Transformation", "Nationwide", "Scaled to 150 practitioners."),
		mustStory(t, "Innovation Center Launch", "Multiple clients"),
	}
}

type testEnv struct {
	asker   *fakeAsker
	health  *fakeHealth
	stories []story.Story
	handler http.Handler
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		asker:   &fakeAsker{},
		health:  &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
		stories: testStories(t),
	}
	srv := NewServer(env.asker, &fakeStories{stories: env.stories}, env.health)
	env.handler = NewRouter(srv, opts)
	return env
}

func (e *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
