// Package ask runs the full question-answering pipeline: route, retrieve,
// rerank, assemble and generate.
package ask

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/confidence"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/intent"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/request"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/search/result"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/logger"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/metrics"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/assemble"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/rerank"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/usecase/router"
)

// Outcome labels how an answer was produced.
type Outcome string

// Answer outcomes.
const (
	OutcomeAnswered Outcome = "answered"
	OutcomeRejected Outcome = "rejected"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeDegraded Outcome = "degraded"
)

// Answer is the pipeline result. Sources lists exactly the stories handed to
// the generator; it is empty for rejected and no-match answers.
type Answer struct {
	Text       string
	Sources    []assemble.Source
	Intent     intent.Intent
	Confidence confidence.Level
	Decision   router.Decision
	Outcome    Outcome
	Degraded   bool
}

// Config sets per-intent breadth.
type Config struct {
	RetrieveK           int
	SynthesisRetrieveK  int
	RerankTopK          int
	SynthesisRerankTopK int
	SynthesisClientCap  int // 0 uses the reranker's cap
	SynthesisThemeCap   int
	Messages            Messages
}

// Service is stateless per request and safe for concurrent use.
type Service struct {
	router    Router
	retriever Retriever
	reranker  Reranker
	assembler Assembler
	generator domain.Generator
	cfg       Config
}

// New creates the pipeline. Zero breadth settings fall back to the defaults.
func New(r Router, ret Retriever, rr Reranker, asm Assembler, gen domain.Generator, cfg Config) *Service {
	if cfg.RetrieveK <= 0 {
		cfg.RetrieveK = domain.DefaultRetrieveK
	}
	if cfg.SynthesisRetrieveK <= 0 {
		cfg.SynthesisRetrieveK = domain.DefaultSynthesisRetrieveK
	}
	if cfg.RerankTopK <= 0 {
		cfg.RerankTopK = domain.DefaultRerankTopK
	}
	if cfg.SynthesisRerankTopK <= 0 {
		cfg.SynthesisRerankTopK = domain.DefaultSynthesisRerankTopK
	}
	if cfg.SynthesisThemeCap <= 0 {
		cfg.SynthesisThemeCap = domain.DefaultSynthesisThemeCap
	}
	return &Service{router: r, retriever: ret, reranker: rr, assembler: asm, generator: gen, cfg: cfg}
}

// Ask answers one question. Provider failures and budget exhaustion produce a
// degraded answer, never an error; errors are returned only for cancellation
// and internal faults such as an index/query dimension mismatch.
func (s *Service) Ask(ctx context.Context, req request.Request) (Answer, error) {
	log := logger.From(ctx)
	msgs := s.cfg.Messages

	decision := s.router.Route(req.Query())
	if !decision.Accepted() {
		log.Info("Query rejected", zap.String("category", decision.Category), zap.Float64("overlap", decision.Overlap))
		return s.finish(Answer{
			Text:       msgs.Rejected(decision.Category),
			Decision:   decision,
			Confidence: confidence.None,
			Outcome:    OutcomeRejected,
		}), nil
	}

	ans := Answer{Decision: decision, Intent: decision.Intent, Confidence: confidence.None}
	synthesis := decision.Intent == intent.Synthesis

	k, topK := s.breadth(decision.Intent, req.TopK())

	out, err := s.retriever.Retrieve(ctx, req.Query(), k)
	if err != nil {
		return s.degrade(ctx, ans, err, msgs.EmbeddingUnavailable())
	}
	ans.Confidence = out.Confidence
	if out.Confidence == confidence.None {
		ans.Text = msgs.NoMatch()
		ans.Outcome = OutcomeNoMatch
		return s.finish(ans), nil
	}

	ranked := s.reranker.Rerank(out.Results, s.rerankQuery(req, decision), topK)
	asm := s.assembler.Assemble(ranked)
	if asm.Empty() {
		ans.Text = msgs.NoMatch()
		ans.Outcome = OutcomeNoMatch
		return s.finish(ans), nil
	}
	ans.Sources = asm.Sources

	gen, err := s.generator.Generate(ctx, domain.GenerationRequest{
		System:  msgs.SystemPrompt(synthesis, sourceThemes(ranked)...),
		Context: asm.Text,
		Query:   req.Query(),
	})
	if err != nil {
		return s.degrade(ctx, ans, err, msgs.GenerationUnavailable())
	}

	ans.Text = CleanAnswer(gen.Text)
	ans.Outcome = OutcomeAnswered
	log.Debug("Answer generated",
		zap.String("intent", string(ans.Intent)),
		zap.String("confidence", string(ans.Confidence)),
		zap.Int("sources", len(ans.Sources)),
		zap.Int("dropped", asm.Dropped),
	)
	return s.finish(ans), nil
}

// breadth returns retrieve k and rerank topK for the intent.
func (s *Service) breadth(in intent.Intent, requested int) (k, topK int) {
	k, topK = s.cfg.RetrieveK, s.cfg.RerankTopK
	if in == intent.Synthesis {
		k, topK = s.cfg.SynthesisRetrieveK, s.cfg.SynthesisRerankTopK
	}
	if requested > 0 {
		topK = requested
	}
	return k, topK
}

// rerankQuery builds the rerank input. Synthesis spreads results across
// themes and, when a client or division was named, stays within it.
func (s *Service) rerankQuery(req request.Request, d router.Decision) rerank.Query {
	q := rerank.Query{
		Text:        req.Query(),
		Constraints: req.Constraints(),
	}
	if d.Entity != nil {
		q.EntityField = d.Entity.Field
		q.EntityValue = d.Entity.Value
	}
	if d.Intent == intent.Synthesis {
		q.ClientCap = s.cfg.SynthesisClientCap
		q.ThemeCap = s.cfg.SynthesisThemeCap
		q.ScopeToEntity = d.Entity != nil
	}
	return q
}

// sourceThemes lists the distinct themes of the ranked stories in rank order.
func sourceThemes(rs []result.Result) []string {
	seen := make(map[string]bool, len(rs))
	var out []string
	for _, r := range rs {
		t := r.Story().Theme()
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// degrade maps provider and budget failures to a canned answer. The error
// text never reaches the caller.
func (s *Service) degrade(ctx context.Context, ans Answer, err error, fallback string) (Answer, error) {
	if ctx.Err() != nil {
		return Answer{}, fmt.Errorf("ask: %w", ctx.Err())
	}

	switch {
	case errors.Is(err, domain.ErrTokenBudgetExceeded):
		ans.Text = s.cfg.Messages.BudgetExhausted()
	case errors.Is(err, domain.ErrEmbeddingProviderError), errors.Is(err, domain.ErrGenerationProviderError):
		ans.Text = fallback
	default:
		return Answer{}, fmt.Errorf("ask: %w", err)
	}

	logger.From(ctx).Warn("Answer degraded", zap.Error(err))
	ans.Degraded = true
	ans.Outcome = OutcomeDegraded
	return s.finish(ans), nil
}

func (s *Service) finish(ans Answer) Answer {
	metrics.AnswersTotal.WithLabelValues(string(ans.Outcome)).Inc()
	return ans
}

// Retrieve runs the pipeline up to context assembly without generating,
// for inspection of routing and ranking.
func (s *Service) Retrieve(ctx context.Context, req request.Request) (Inspection, error) {
	decision := s.router.Route(req.Query())
	insp := Inspection{Decision: decision, Confidence: confidence.None}
	if !decision.Accepted() {
		return insp, nil
	}

	k, topK := s.breadth(decision.Intent, req.TopK())

	out, err := s.retriever.Retrieve(ctx, req.Query(), k)
	if err != nil {
		return Inspection{}, fmt.Errorf("retrieve: %w", err)
	}
	insp.Confidence = out.Confidence
	insp.TopScore = out.TopScore
	if out.Confidence == confidence.None {
		return insp, nil
	}

	insp.Results = s.reranker.Rerank(out.Results, s.rerankQuery(req, decision), topK)
	insp.Context = s.assembler.Assemble(insp.Results)
	return insp, nil
}

// Inspection is the pre-generation state of a request.
type Inspection struct {
	Decision   router.Decision
	Confidence confidence.Level
	TopScore   float64
	Results    []result.Result
	Context    assemble.Context
}
