package health

import "context"

// Pinger checks KV store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CorpusCounter reports how many stories are loaded.
type CorpusCounter interface {
	Len() int
}

// IndexCounter reports how many vectors are searchable.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}
