package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/request"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
	askuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/ask"
	healthuc "github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/health"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/validation"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/version"
)

// Pagination limits for GET /api/v1/stories.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const maxBodyBytes = 64 << 10

// Asker runs the question pipeline.
type Asker interface {
	Ask(ctx context.Context, req request.Request) (askuc.Answer, error)
	Retrieve(ctx context.Context, req request.Request) (askuc.Inspection, error)
}

// StoryReader reads the loaded corpus.
type StoryReader interface {
	All() []story.Story
	Get(id string) (story.Story, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	ask     Asker
	stories StoryReader
	health  HealthChecker
}

// NewServer creates an HTTP API server.
func NewServer(ask Asker, stories StoryReader, health HealthChecker) *Server {
	return &Server{ask: ask, stories: stories, health: health}
}

// Ask handles POST /api/v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.ask.Ask(ctx, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, askResponse(ans))
}

// Retrieve handles POST /api/v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	insp, err := s.ask.Retrieve(ctx, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, retrieveResponse(insp))
}

// ListStories handles GET /api/v1/stories?offset=&limit=.
func (s *Server) ListStories(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "offset must be a non-negative integer")
		return
	}
	limit, err := intParam(r, "limit", DefaultPageSize)
	if err != nil || limit < 1 || limit > MaxPageSize {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			"limit must be an integer between 1 and "+strconv.Itoa(MaxPageSize))
		return
	}

	all := s.stories.All()
	start := min(offset, len(all))
	end := min(start+limit, len(all))

	items := make([]StorySummary, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, storySummary(&all[i]))
	}
	writeJSON(w, http.StatusOK, StoryListResponse{
		Items:   items,
		Total:   len(all),
		Offset:  offset,
		Limit:   limit,
		HasMore: end < len(all),
	})
}

// GetStory handles GET /api/v1/stories/{id}.
func (s *Server) GetStory(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid story id")
		return
	}

	st, err := s.stories.Get(id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, storyDetail(&st))
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Stories: report.Stories,
		Vectors: report.Vectors,
		Version: version.Version,
	})
}

// decodeAsk reads and validates the request body. On failure the error
// response is already written.
func decodeAsk(w http.ResponseWriter, r *http.Request) (request.Request, bool) {
	var body AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return request.Request{}, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return request.Request{}, false
	}
	if err := validation.Struct(body); err != nil {
		handleDomainError(w, r, err)
		return request.Request{}, false
	}

	req, err := body.toRequest()
	if err != nil {
		handleDomainError(w, r, err)
		return request.Request{}, false
	}
	return req, true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil {
		return
	}
	if usage.EmbeddingCalled {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.GenerationTokens > 0 {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.GenerationTokens))
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw) //nolint:wrapcheck // caller maps to 400
}
