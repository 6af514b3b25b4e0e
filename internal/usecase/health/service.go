package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is failing; answers still flow.
	Degraded Status = "degraded"
	// Unhealthy indicates the corpus or index is not ready.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentCorpus    = "corpus"
	ComponentIndex     = "index"
	ComponentKV        = "kv"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Stories int
	Vectors int
}

// Service coordinates health checks.
type Service struct {
	corpus    CorpusCounter
	index     IndexCounter
	kv        Pinger
	embedding EmbeddingChecker
}

// New creates a Service. kv and embedding can be nil.
func New(corpus CorpusCounter, index IndexCounter, kv Pinger, embedding EmbeddingChecker) *Service {
	return &Service{corpus: corpus, index: index, kv: kv, embedding: embedding}
}

// Check runs health checks against all components.
// An empty corpus or index is fatal; a failing KV store or provider only degrades.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: make(map[string]CheckResult)}

	r.Stories = s.corpus.Len()
	r.Checks[ComponentCorpus] = result(r.Stories > 0)

	n, err := s.index.Count(ctx)
	r.Vectors = n
	r.Checks[ComponentIndex] = result(err == nil && n > 0)

	if s.kv != nil {
		r.Checks[ComponentKV] = result(s.kv.Ping(ctx) == nil)
	}
	if s.embedding != nil {
		r.Checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	for name, v := range r.Checks {
		if v != CheckError {
			continue
		}
		if name == ComponentCorpus || name == ComponentIndex {
			r.Status = Unhealthy
			break
		}
		r.Status = Degraded
	}
	return r
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
