package chi

import (
	"fmt"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/filter"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/request"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	askuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/ask"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/assemble"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/router"
)

// Filters are optional hard constraints on which stories may be cited.
type Filters struct {
	Personas   []string `json:"personas" validate:"max=32,dive,max=200"`
	Clients    []string `json:"clients" validate:"max=32,dive,max=200"`
	Domains    []string `json:"domains" validate:"max=32,dive,max=200"`
	Roles      []string `json:"roles" validate:"max=32,dive,max=200"`
	Tags       []string `json:"tags" validate:"max=32,dive,max=200"`
	Industry   string   `json:"industry" validate:"max=200"`
	Capability string   `json:"capability" validate:"max=200"`
	Keywords   string   `json:"keywords" validate:"max=500"`
	HasMetric  bool     `json:"has_metric"`
}

// AskRequest is the body of POST /api/v1/ask and POST /api/v1/retrieve.
type AskRequest struct {
	Query   string   `json:"query" validate:"required,max=2000"`
	Filters *Filters `json:"filters"`
	TopK    int      `json:"top_k" validate:"gte=0,lte=20"`
}

func (a AskRequest) toRequest() (request.Request, error) {
	var p filter.Params
	if f := a.Filters; f != nil {
		p = filter.Params{
			Personas:   f.Personas,
			Clients:    f.Clients,
			Domains:    f.Domains,
			Roles:      f.Roles,
			Tags:       f.Tags,
			Industry:   f.Industry,
			Capability: f.Capability,
			Keywords:   f.Keywords,
			HasMetric:  f.HasMetric,
		}
	}
	c, err := filter.New(p)
	if err != nil {
		return request.Request{}, fmt.Errorf("filters: %w: %w", err, domain.ErrInvalidQuery)
	}
	return request.New(a.Query, c, a.TopK) //nolint:wrapcheck // already wraps ErrInvalidQuery
}

// AskResponse is the answer to one question.
type AskResponse struct {
	Answer     string            `json:"answer"`
	Outcome    string            `json:"outcome"`
	Decision   string            `json:"decision"`
	Intent     string            `json:"intent,omitempty"`
	Category   string            `json:"category,omitempty"`
	Confidence string            `json:"confidence"`
	Degraded   bool              `json:"degraded"`
	Sources    []assemble.Source `json:"sources"`
}

func askResponse(a askuc.Answer) AskResponse {
	sources := a.Sources
	if sources == nil {
		sources = []assemble.Source{}
	}
	return AskResponse{
		Answer:     a.Text,
		Outcome:    string(a.Outcome),
		Decision:   string(a.Decision.Kind),
		Intent:     string(a.Intent),
		Category:   a.Decision.Category,
		Confidence: string(a.Confidence),
		Degraded:   a.Degraded,
		Sources:    sources,
	}
}

// EntityResponse is a corpus entity the router found in the query.
type EntityResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Hit is one reranked retrieval result.
type Hit struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Client           string  `json:"client"`
	Rank             int     `json:"rank"`
	Score            float64 `json:"score"`
	Composite        float64 `json:"composite"`
	TagOverlap       int     `json:"tag_overlap"`
	SubCategoryMatch bool    `json:"sub_category_match"`
	EntityMatch      bool    `json:"entity_match"`
}

// RetrieveResponse exposes routing, ranking and the assembled context.
type RetrieveResponse struct {
	Decision   string            `json:"decision"`
	Intent     string            `json:"intent,omitempty"`
	Category   string            `json:"category,omitempty"`
	Rule       string            `json:"rule,omitempty"`
	Overlap    float64           `json:"overlap"`
	Entity     *EntityResponse   `json:"entity,omitempty"`
	Confidence string            `json:"confidence"`
	TopScore   float64           `json:"top_score"`
	Results    []Hit             `json:"results"`
	Context    string            `json:"context"`
	Sources    []assemble.Source `json:"sources"`
	Dropped    int               `json:"dropped"`
}

func retrieveResponse(in askuc.Inspection) RetrieveResponse {
	resp := RetrieveResponse{
		Decision:   string(in.Decision.Kind),
		Intent:     string(in.Decision.Intent),
		Category:   in.Decision.Category,
		Rule:       in.Decision.Rule,
		Overlap:    in.Decision.Overlap,
		Entity:     entityResponse(in.Decision.Entity),
		Confidence: string(in.Confidence),
		TopScore:   in.TopScore,
		Results:    make([]Hit, len(in.Results)),
		Context:    in.Context.Text,
		Sources:    in.Context.Sources,
		Dropped:    in.Context.Dropped,
	}
	for i := range in.Results {
		resp.Results[i] = hitResponse(&in.Results[i])
	}
	if resp.Sources == nil {
		resp.Sources = []assemble.Source{}
	}
	return resp
}

func entityResponse(e *router.Entity) *EntityResponse {
	if e == nil {
		return nil
	}
	return &EntityResponse{Field: e.Field, Value: e.Value}
}

func hitResponse(r *result.Result) Hit {
	s := r.Story()
	return Hit{
		ID:               r.ID(),
		Title:            s.Title(),
		Client:           s.Client(),
		Rank:             r.Rank(),
		Score:            r.Score(),
		Composite:        r.Composite(),
		TagOverlap:       r.TagOverlap(),
		SubCategoryMatch: r.SubCategoryMatch(),
		EntityMatch:      r.EntityMatch(),
	}
}

// StorySummary is a story as listed.
type StorySummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Client      string   `json:"client"`
	Role        string   `json:"role"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Theme       string   `json:"theme"`
	Tags        []string `json:"tags"`
	Summary     string   `json:"summary"`
}

// StoryDetail is the full record of one story.
type StoryDetail struct {
	StorySummary
	Employer  string   `json:"employer,omitempty"`
	Division  string   `json:"division,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Solution  string   `json:"solution,omitempty"`
	Situation []string `json:"situation"`
	Task      []string `json:"task"`
	Action    []string `json:"action"`
	Result    []string `json:"result"`
	Metrics   []string `json:"metrics"`
	Personas  []string `json:"personas"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

// StoryListResponse is one page of stories in corpus order.
type StoryListResponse struct {
	Items   []StorySummary `json:"items"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	HasMore bool           `json:"has_more"`
}

const summaryRunes = 280

func storySummary(s *story.Story) StorySummary {
	return StorySummary{
		ID:          s.ID(),
		Title:       s.Title(),
		Client:      s.Client(),
		Role:        s.Role(),
		Category:    s.Category(),
		SubCategory: s.SubCategory(),
		Theme:       s.Theme(),
		Tags:        nonNil(s.Tags()),
		Summary:     s.Summary(summaryRunes),
	}
}

func storyDetail(s *story.Story) StoryDetail {
	f := s.Fields()
	return StoryDetail{
		StorySummary: storySummary(s),
		Employer:     f.Employer,
		Division:     f.Division,
		Industry:     f.Industry,
		Solution:     f.Solution,
		Situation:    nonNil(f.Situation),
		Task:         nonNil(f.Task),
		Action:       nonNil(f.Action),
		Result:       nonNil(f.Result),
		Metrics:      nonNil(s.Metrics()),
		Personas:     nonNil(f.Personas),
		StartDate:    f.StartDate,
		EndDate:      f.EndDate,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Stories int               `json:"stories"`
	Vectors int               `json:"vectors"`
	Version string            `json:"version"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
