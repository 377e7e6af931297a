package querystats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS faq_queries (
    collection TEXT NOT NULL,
    canonical TEXT NOT NULL,
    display TEXT NOT NULL,
    count BIGINT NOT NULL,
    PRIMARY KEY (collection, canonical)
);
`

// PostgresStore keeps query counters in the database holding the collection.
type PostgresStore struct {
	pool       *pgxpool.Pool
	collection string
}

// NewPostgresStore creates the counters table when missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, collection string) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create query stats schema: %w", err)
	}
	return &PostgresStore{pool: pool, collection: collection}, nil
}

// IncrementQuery implements faq.QueryStats.
func (s *PostgresStore) IncrementQuery(ctx context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO faq_queries (collection, canonical, display, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (collection, canonical) DO UPDATE SET count = faq_queries.count + 1
	`, s.collection, canonical, display)
	return err
}

// TopQueries implements faq.QueryStats.
func (s *PostgresStore) TopQueries(ctx context.Context, limit int) ([]faq.TrendingQuery, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(NULLIF(display, ''), canonical) AS query, count
		FROM faq_queries
		WHERE collection = $1
		ORDER BY count DESC, query ASC
		LIMIT $2
	`, s.collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []faq.TrendingQuery
	for rows.Next() {
		var item faq.TrendingQuery
		if err := rows.Scan(&item.Query, &item.Count); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

var _ faq.QueryStats = (*PostgresStore)(nil)
