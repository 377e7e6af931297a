package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const postgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS faq_entries (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    seq BIGSERIAL,
    content TEXT NOT NULL,
    embedding vector NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);
`

// PostgresStore implements faq.VectorStore on pgvector. Distances use the
// cosine operator so results match the other backends.
type PostgresStore struct {
	pool       *pgxpool.Pool
	collection string
}

// NewPostgresStore creates the schema when missing and binds to collection.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, collection string) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool, collection: collection}, nil
}

// Count implements faq.VectorStore.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM faq_entries WHERE collection = $1`, s.collection).Scan(&count)
	return count, err
}

// MaxID implements faq.VectorStore.
func (s *PostgresStore) MaxID(ctx context.Context) (int64, error) {
	var max int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(id::bigint), 0)
		FROM faq_entries
		WHERE collection = $1
	`, s.collection).Scan(&max)
	return max, err
}

// Populate holds a transaction-scoped advisory lock on the collection, so
// concurrent populators serialise and only the first one inserts.
func (s *PostgresStore) Populate(ctx context.Context, entries []faq.Entry) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "faq_populate:"+s.collection); err != nil {
		return false, fmt.Errorf("advisory lock: %w", err)
	}
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM faq_entries WHERE collection = $1`, s.collection).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.insert(ctx, tx, entries); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Add implements faq.VectorStore.
func (s *PostgresStore) Add(ctx context.Context, entries []faq.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := s.insert(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) insert(ctx context.Context, tx pgx.Tx, entries []faq.Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		var created any
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt
		}
		batch.Queue(`
			INSERT INTO faq_entries (collection, id, content, embedding, created_at)
			VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		`, s.collection, e.ID, e.Text, pgvector.NewVector(e.Embedding), created)
	}
	results := tx.SendBatch(ctx, batch)
	for _, e := range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return results.Close()
}

// Query implements faq.VectorStore.
func (s *PostgresStore) Query(ctx context.Context, embedding []float32, k int) ([]faq.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, content, embedding, created_at, embedding <=> $2 AS distance
		FROM faq_entries
		WHERE collection = $1
		ORDER BY embedding <=> $2, seq
		LIMIT $3
	`, s.collection, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []faq.Match
	for rows.Next() {
		var (
			m   faq.Match
			vec pgvector.Vector
		)
		if err := rows.Scan(&m.Entry.ID, &m.Entry.Text, &vec, &m.Entry.CreatedAt, &m.Distance); err != nil {
			return nil, err
		}
		m.Entry.Embedding = vec.Slice()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Pool exposes the connection pool so other tables can share it.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ faq.VectorStore = (*PostgresStore)(nil)
