package ask

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/confidence"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/filter"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/intent"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/request"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/assemble"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/rerank"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/retrieve"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/router"
)

type fakeRetriever struct {
	out   retrieve.Outcome
	err   error
	calls int
	lastK int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, k int) (retrieve.Outcome, error) {
	f.calls++
	f.lastK = k
	return f.out, f.err
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
	last  domain.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return domain.GenerationResult{}, f.err
	}
	return domain.GenerationResult{Text: f.text, TotalTokens: 10}, nil
}

func mustStory(t *testing.T, title, client, subCategory string, tags ...string) story.Story {
	t.Helper()
	s, err := story.New(story.Fields{
		Title: title, Client: client, Role: "Lead", Category: "Transformation",
		SubCategory: subCategory, Tags: tags,
		Situation: []string{"Legacy delivery was slow."},
		Result:    []string{"Cut lead time by 40%."},
	})
	if err != nil {
		t.Fatalf("story.New: %v", err)
	}
	return s
}

type fixture struct {
	stories   []story.Story
	retriever *fakeRetriever
	generator *fakeGenerator
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stories := []story.Story{
		mustStory(t, "Modernized Payments Platform", "JP Morgan Chase", "Platform Modernization", "payments"),
		mustStory(t, "Payments Reliability Program", "JP Morgan Chase", "Site Reliability", "payments"),
		mustStory(t, "Agile Transformation", "Nationwide", "Ways of Working", "agile"),
		mustStory(t, "Claims Data Platform", "Kaiser Permanente", "Data Platform", "data"),
	}
	ret := &fakeRetriever{}
	gen := &fakeGenerator{text: "Matt modernized payments at JP Morgan Chase. This demonstrates his skill."}
	svc := New(
		router.New(stories, router.Config{}, zap.NewNop()),
		ret,
		rerank.New(rerank.Config{TagWeight: 0.3, SubCategoryWeight: 0.5, EntityWeight: 1, PerClientCap: 1}, stories),
		assemble.New(0),
		gen,
		Config{Messages: Messages{Owner: "Matt"}},
	)
	return &fixture{stories: stories, retriever: ret, generator: gen, svc: svc}
}

func (f *fixture) hits(scores ...float64) retrieve.Outcome {
	out := retrieve.Outcome{Confidence: confidence.High, TopScore: scores[0]}
	for i, sc := range scores {
		out.Results = append(out.Results, result.New(f.stories[i], sc, i))
	}
	return out
}

func mustRequest(t *testing.T, q string, topK int) request.Request {
	t.Helper()
	req, err := request.New(q, filter.Constraints{}, topK)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func TestAsk_Answered(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.62, 0.55, 0.31, 0.22)

	ans, err := f.svc.Ask(context.Background(), mustRequest(t, "How did Matt modernize payments at JP Morgan Chase?", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Outcome != OutcomeAnswered || ans.Degraded {
		t.Fatalf("expected answered, got %+v", ans)
	}
	if ans.Text != "Matt modernized payments at JP Morgan Chase." {
		t.Errorf("expected cleaned text, got %q", ans.Text)
	}
	if ans.Intent != intent.Single || ans.Confidence != confidence.High {
		t.Errorf("unexpected intent/confidence %s/%s", ans.Intent, ans.Confidence)
	}
	if f.retriever.lastK != domain.DefaultRetrieveK {
		t.Errorf("expected k=%d, got %d", domain.DefaultRetrieveK, f.retriever.lastK)
	}

	// Per-client cap 1: only one JP Morgan Chase story survives.
	clients := map[string]int{}
	for _, src := range ans.Sources {
		clients[src.Client]++
		if !strings.Contains(f.generator.last.Context, "Title: "+src.Title+"\n") {
			t.Errorf("source %q missing from generator context", src.Title)
		}
	}
	if clients["JP Morgan Chase"] != 1 {
		t.Errorf("expected one JPMC source, got %d", clients["JP Morgan Chase"])
	}
	if len(ans.Sources) != domain.DefaultRerankTopK {
		t.Errorf("expected %d sources, got %d", domain.DefaultRerankTopK, len(ans.Sources))
	}
	if f.generator.last.Query != "How did Matt modernize payments at JP Morgan Chase?" {
		t.Errorf("unexpected generator query %q", f.generator.last.Query)
	}
}

func TestAsk_RejectedSkipsProviders(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Ask(context.Background(), mustRequest(t, "what's the weather forecast for tomorrow", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := f.svc.Ask(context.Background(), mustRequest(t, "what's the weather forecast for tomorrow", 0))

	if first.Outcome != OutcomeRejected || first.Decision.Category != "weather" {
		t.Fatalf("expected weather rejection, got %+v", first.Decision)
	}
	if first.Text != second.Text {
		t.Error("canned reply must be deterministic")
	}
	if len(first.Sources) != 0 {
		t.Errorf("rejected answers carry no sources, got %v", first.Sources)
	}
	if f.retriever.calls != 0 || f.generator.calls != 0 {
		t.Errorf("providers must not be called, got retrieve=%d generate=%d", f.retriever.calls, f.generator.calls)
	}
}

func TestAsk_NoMatch(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = retrieve.Outcome{Confidence: confidence.None, TopScore: 0.12}

	ans, err := f.svc.Ask(context.Background(), mustRequest(t, "quantum chromodynamics research", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Outcome != OutcomeNoMatch || ans.Text != (Messages{Owner: "Matt"}).NoMatch() {
		t.Fatalf("expected no-match answer, got %+v", ans)
	}
	if len(ans.Sources) != 0 || f.generator.calls != 0 {
		t.Error("no-match must not generate or cite")
	}
}

func TestAsk_FilterRemovesEverything(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.62, 0.55)
	c, _ := filter.New(filter.Params{Clients: []string{"Capital One"}})
	req, _ := request.New("payments work", c, 0)

	ans, err := f.svc.Ask(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Outcome != OutcomeNoMatch || f.generator.calls != 0 {
		t.Fatalf("expected no-match after filtering, got %+v", ans)
	}
}

func TestAsk_Synthesis(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.5, 0.48, 0.45, 0.4)

	ans, err := f.svc.Ask(context.Background(), mustRequest(t, "What are the common themes across your transformation work?", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Intent != intent.Synthesis {
		t.Fatalf("expected synthesis intent, got %s", ans.Intent)
	}
	if f.retriever.lastK != domain.DefaultSynthesisRetrieveK {
		t.Errorf("expected k=%d, got %d", domain.DefaultSynthesisRetrieveK, f.retriever.lastK)
	}
	if len(ans.Sources) != 3 {
		t.Errorf("expected 3 distinct clients, got %d sources", len(ans.Sources))
	}
	if !strings.Contains(f.generator.last.System, "patterns across stories") {
		t.Error("expected synthesis instructions in system prompt")
	}
}

func TestAsk_SynthesisThemeGuidance(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.5, 0.48, 0.45, 0.4)

	if _, err := f.svc.Ask(context.Background(), mustRequest(t, "What are the common themes across your transformation work?", 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := f.generator.last.System
	if !strings.Contains(sys, "EXECUTION & DELIVERY stories:") {
		t.Errorf("expected execution guidance in system prompt:\n%s", sys)
	}
	if strings.Contains(sys, "STRATEGIC & ADVISORY stories:") {
		t.Error("guidance must only cover themes of the selected stories")
	}
	if !strings.Contains(f.generator.last.Context, "Theme: "+story.ThemeExecution) {
		t.Error("expected theme line in generator context")
	}
}

func TestAsk_SynthesisScopedToEntity(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.5, 0.48, 0.55, 0.52)

	ans, err := f.svc.Ask(context.Background(), mustRequest(t, "What are the common themes in your JP Morgan Chase work?", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Intent != intent.Synthesis || ans.Decision.Entity == nil {
		t.Fatalf("expected synthesis with entity, got %+v", ans.Decision)
	}
	if len(ans.Sources) != 2 {
		t.Fatalf("expected both JP Morgan Chase stories, got %+v", ans.Sources)
	}
	for _, src := range ans.Sources {
		if src.Client != "JP Morgan Chase" {
			t.Errorf("unexpected client %q in scoped synthesis", src.Client)
		}
	}
}

func TestAsk_SynthesisThemeCap(t *testing.T) {
	stories := []story.Story{
		mustStory(t, "Payments Platform", "JP Morgan Chase", "Platform Engineering"),
		mustStory(t, "Cloud Migration", "Fifth Third", "Cloud-Native Architecture"),
		mustStory(t, "API Gateway", "Capital One", "API & Integration Architecture"),
		mustStory(t, "Agile at Scale", "Nationwide", "Agile Transformation"),
	}
	ret := &fakeRetriever{out: retrieve.Outcome{Confidence: confidence.High, TopScore: 0.6}}
	for i, sc := range []float64{0.6, 0.58, 0.56, 0.4} {
		ret.out.Results = append(ret.out.Results, result.New(stories[i], sc, i))
	}
	gen := &fakeGenerator{text: "ok"}
	svc := New(
		router.New(stories, router.Config{}, zap.NewNop()),
		ret,
		rerank.New(rerank.Config{TagWeight: 0.3, SubCategoryWeight: 0.5, EntityWeight: 1, PerClientCap: 1}, stories),
		assemble.New(0),
		gen,
		Config{SynthesisThemeCap: 2, Messages: Messages{Owner: "Matt"}},
	)

	ans, err := svc.Ask(context.Background(), mustRequest(t, "What are the common themes across your career?", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	themes := map[string]int{}
	for _, src := range ans.Sources {
		themes[src.Theme]++
	}
	if themes[story.ThemeExecution] != 2 || themes[story.ThemeOrgTransform] != 1 {
		t.Fatalf("expected 2 execution and 1 org stories, got %v", themes)
	}
	if !strings.Contains(gen.last.System, "ORG & WORKING-MODEL TRANSFORMATION stories:") {
		t.Error("expected org transformation guidance")
	}
}

func TestAsk_RequestTopKOverride(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.62, 0.55, 0.31, 0.22)

	ans, err := f.svc.Ask(context.Background(), mustRequest(t, "payments modernization", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ans.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(ans.Sources))
	}
}

func TestAsk_Degraded(t *testing.T) {
	providerDown := errors.New("dial tcp: connection refused")
	tests := []struct {
		name        string
		retrieveErr error
		generateErr error
		wantText    string
		wantSources bool
	}{
		{
			name:        "embedding failure",
			retrieveErr: errors.Join(domain.ErrEmbeddingProviderError, providerDown),
			wantText:    (Messages{Owner: "Matt"}).EmbeddingUnavailable(),
		},
		{
			name:        "generation failure keeps sources",
			generateErr: errors.Join(domain.ErrGenerationProviderError, providerDown),
			wantText:    (Messages{Owner: "Matt"}).GenerationUnavailable(),
			wantSources: true,
		},
		{
			name:        "budget exhausted",
			retrieveErr: domain.ErrTokenBudgetExceeded,
			wantText:    (Messages{Owner: "Matt"}).BudgetExhausted(),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.retriever.out = f.hits(0.62, 0.55)
			f.retriever.err = tc.retrieveErr
			f.generator.err = tc.generateErr

			ans, err := f.svc.Ask(context.Background(), mustRequest(t, "payments modernization", 0))
			if err != nil {
				t.Fatalf("degraded paths must not error, got %v", err)
			}
			if !ans.Degraded || ans.Outcome != OutcomeDegraded {
				t.Fatalf("expected degraded answer, got %+v", ans)
			}
			if ans.Text != tc.wantText {
				t.Errorf("unexpected text %q", ans.Text)
			}
			if strings.Contains(ans.Text, "connection refused") {
				t.Error("raw provider error leaked into answer")
			}
			if got := len(ans.Sources) > 0; got != tc.wantSources {
				t.Errorf("sources present = %v, want %v", got, tc.wantSources)
			}
		})
	}
}

func TestAsk_InternalErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.retriever.err = domain.ErrVectorDimMismatch

	_, err := f.svc.Ask(context.Background(), mustRequest(t, "payments modernization", 0))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected dimension mismatch error, got %v", err)
	}
}

func TestAsk_CanceledContext(t *testing.T) {
	f := newFixture(t)
	f.retriever.err = errors.Join(domain.ErrEmbeddingProviderError, context.Canceled)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Ask(ctx, mustRequest(t, "payments modernization", 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetrieve_Inspection(t *testing.T) {
	f := newFixture(t)
	f.retriever.out = f.hits(0.62, 0.55, 0.31)

	insp, err := f.svc.Retrieve(context.Background(), mustRequest(t, "payments modernization", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insp.Results) == 0 || len(insp.Context.Sources) != len(insp.Results) {
		t.Fatalf("expected ranked results with matching sources, got %d/%d", len(insp.Results), len(insp.Context.Sources))
	}
	if f.generator.calls != 0 {
		t.Error("inspection must not generate")
	}
}

func TestMessages_Rejected(t *testing.T) {
	m := Messages{Owner: "Matt"}
	for _, cat := range []string{"weather", "shopping", "sports", "food", "finance", "trivia", "entertainment", "other", "greeting", "identity", "empty"} {
		got := m.Rejected(cat)
		if got == "" || !strings.Contains(got, "Matt") {
			t.Errorf("Rejected(%q) = %q", cat, got)
		}
		if got != m.Rejected(cat) {
			t.Errorf("Rejected(%q) not deterministic", cat)
		}
	}
	if (Messages{}).NoMatch() != m.NoMatch() {
		t.Error("empty owner should default to Matt")
	}
}

func TestMessages_SystemPromptThemes(t *testing.T) {
	m := Messages{Owner: "Matt"}
	if strings.Contains(m.SystemPrompt(false), "Frame each story") {
		t.Error("no themes should add no guidance")
	}
	got := m.SystemPrompt(true, story.ThemeTalent, "Unknown Theme")
	if !strings.Contains(got, "TALENT & ENABLEMENT stories:") || !strings.Contains(got, "Matt built [capability]") {
		t.Errorf("expected talent guidance, got:\n%s", got)
	}
	if !strings.Contains(got, "EXECUTION & DELIVERY stories:") {
		t.Error("unknown theme should fall back to execution guidance")
	}
	if got != m.SystemPrompt(true, story.ThemeTalent, "Unknown Theme") {
		t.Error("system prompt must be deterministic")
	}
}
