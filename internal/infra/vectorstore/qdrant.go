package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const (
	qdrantTextKey    = "text"
	qdrantCreatedKey = "created_at"
	qdrantScrollPage = 256
)

// QdrantStore maps the logical collection onto a Qdrant collection with
// cosine distance. Qdrant has no transactions, so Populate relies on the
// caller's population lock.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore binds to collection. The Qdrant collection is created on the
// first insert, once the embedding size is known.
func NewQdrantStore(client *qdrant.Client, collection string) *QdrantStore {
	return &QdrantStore{client: client, collection: collection}
}

func (s *QdrantStore) exists(ctx context.Context) (bool, error) {
	return s.client.CollectionExists(ctx, s.collection)
}

func (s *QdrantStore) ensureCollection(ctx context.Context, vectorSize int) error {
	exists, err := s.exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if vectorSize <= 0 {
		return fmt.Errorf("vectorstore: cannot create qdrant collection %q without embeddings", s.collection)
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Count implements faq.VectorStore.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return 0, err
	}
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	return int(n), err
}

// MaxID scrolls every point id once; points are returned in ascending id order.
func (s *QdrantStore) MaxID(ctx context.Context) (int64, error) {
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return 0, err
	}
	var (
		max    uint64
		offset *qdrant.PointId
	)
	for {
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(qdrantScrollPage)),
			WithPayload:    qdrant.NewWithPayload(false),
		})
		if err != nil {
			return 0, err
		}
		for _, p := range points {
			if n := p.GetId().GetNum(); n > max {
				max = n
			}
		}
		if len(points) < qdrantScrollPage {
			break
		}
		offset = qdrant.NewIDNum(max + 1)
	}
	return int64(max), nil
}

// Populate implements faq.VectorStore.
func (s *QdrantStore) Populate(ctx context.Context, entries []faq.Entry) (bool, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.Add(ctx, entries); err != nil {
		return false, err
	}
	return true, nil
}

// Add implements faq.VectorStore. Upsert would silently replace a point, so
// ids already in the collection are rejected first.
func (s *QdrantStore) Add(ctx context.Context, entries []faq.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	points, err := buildPoints(entries)
	if err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, len(entries[0].Embedding)); err != nil {
		return err
	}
	ids := make([]*qdrant.PointId, len(points))
	for i, p := range points {
		ids[i] = p.GetId()
	}
	existing, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return err
	}
	if err := duplicateIDError(existing); err != nil {
		return err
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	return err
}

func buildPoints(entries []faq.Entry) ([]*qdrant.PointStruct, error) {
	points := make([]*qdrant.PointStruct, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for i, e := range entries {
		id, err := parseID(e.ID)
		if err != nil {
			return nil, err
		}
		if id < 0 {
			return nil, fmt.Errorf("vectorstore: qdrant ids must be non-negative, got %d", id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w %q", ErrDuplicateID, e.ID)
		}
		seen[id] = struct{}{}
		created := e.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(id)),
			Vectors: qdrant.NewVectors(e.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				qdrantTextKey:    e.Text,
				qdrantCreatedKey: created.Format(time.RFC3339Nano),
			}),
		}
	}
	return points, nil
}

func duplicateIDError(existing []*qdrant.RetrievedPoint) error {
	if len(existing) == 0 {
		return nil
	}
	ids := make([]string, len(existing))
	for i, p := range existing {
		ids[i] = strconv.FormatUint(p.GetId().GetNum(), 10)
	}
	return fmt.Errorf("%w %s", ErrDuplicateID, strings.Join(ids, ","))
}

// Query implements faq.VectorStore. Qdrant reports cosine similarity, which
// is converted back to a distance. Embeddings are not returned.
func (s *QdrantStore) Query(ctx context.Context, embedding []float32, k int) ([]faq.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	exists, err := s.exists(ctx)
	if err != nil || !exists {
		return nil, err
	}
	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]faq.Match, 0, len(resp))
	for _, r := range resp {
		out = append(out, scoredPointMatch(r))
	}
	return out, nil
}

func scoredPointMatch(p *qdrant.ScoredPoint) faq.Match {
	entry := faq.Entry{ID: strconv.FormatUint(p.GetId().GetNum(), 10)}
	if v, ok := p.GetPayload()[qdrantTextKey]; ok {
		entry.Text = v.GetStringValue()
	}
	if v, ok := p.GetPayload()[qdrantCreatedKey]; ok {
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, v.GetStringValue())
	}
	return faq.Match{Entry: entry, Distance: 1 - float64(p.GetScore())}
}

// Close implements faq.VectorStore.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

var _ faq.VectorStore = (*QdrantStore)(nil)
