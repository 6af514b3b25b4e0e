// Package qdrant is the remote Vector Index backend. Story ids are kept in the
// point payload; point ids are UUIDv5 derived from the story id.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/index"
	"github.com/mcpugmire1/llm-portfolio-assistant/internal/logger"
)

const (
	payloadStoryID = "story_id"
	payloadTitle   = "title"
	payloadClient  = "client"
)

// client is the subset of *qdrant.Client the store uses.
type client interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, req *qdrant.CountPoints) (uint64, error)
	Close() error
}

// Config holds qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
}

// Store searches a qdrant collection configured with cosine distance.
type Store struct {
	client     client
	collection string
}

// New connects to qdrant over gRPC.
func New(cfg Config) (*Store, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant connect %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Store{client: c, collection: cfg.Collection}, nil
}

// NewForTest creates a Store around an injected client.
func NewForTest(c client, collection string) *Store {
	return &Store{client: c, collection: collection}
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.client.Close() //nolint:wrapcheck // passthrough
}

// EnsureCollection creates the collection when it does not exist.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("collection exists %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dim), //nolint:gosec // dim is positive
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes one point per entry. vectors align with entries.
func (s *Store) Upsert(ctx context.Context, entries []index.Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors length mismatch: %d != %d", len(entries), len(vectors))
	}
	if len(entries) == 0 {
		return nil
	}
	pts := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(e.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadStoryID: e.ID,
				payloadTitle:   e.Title,
				payloadClient:  e.Client,
			}),
		}
	}
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         pts,
	}); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(pts), err)
	}
	return nil
}

// Search implements index.Searcher. Points without a story id payload are
// skipped with a warning, so fewer than k hits can come back.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]index.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k=%d: %w", k, domain.ErrInvalidK)
	}
	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	log := logger.From(ctx)
	hits := make([]index.Hit, 0, len(resp))
	for _, p := range resp {
		id := p.GetPayload()[payloadStoryID].GetStringValue()
		if id == "" {
			// Points written outside the indexer; re-run it to repair the collection.
			log.Warn("Qdrant point has no story id payload",
				zap.String("collection", s.collection),
				zap.String("point_id", p.GetId().GetUuid()),
				zap.Float32("score", p.GetScore()),
			)
			continue
		}
		hits = append(hits, index.Hit{ID: id, Score: float64(p.GetScore())})
	}
	return hits, nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return int(n), nil //nolint:gosec // collection size fits in int
}

// PointID maps a story id to a stable UUID.
func PointID(storyID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(storyID)).String()
}
