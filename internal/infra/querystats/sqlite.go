package querystats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS faq_queries (
    collection TEXT NOT NULL,
    canonical TEXT NOT NULL,
    display TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (collection, canonical)
);
`

// SQLiteStore keeps query counters next to the collection in the SQLite
// file, so they survive between CLI runs.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// NewSQLiteStore creates the counters table when missing.
func NewSQLiteStore(ctx context.Context, db *sql.DB, collection string) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create query stats schema: %w", err)
	}
	return &SQLiteStore{db: db, collection: collection}, nil
}

// IncrementQuery implements faq.QueryStats. The first display text seen for a
// canonical query is kept.
func (s *SQLiteStore) IncrementQuery(ctx context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faq_queries (collection, canonical, display, count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (collection, canonical) DO UPDATE SET count = faq_queries.count + 1
	`, s.collection, canonical, display)
	return err
}

// TopQueries implements faq.QueryStats.
func (s *SQLiteStore) TopQueries(ctx context.Context, limit int) ([]faq.TrendingQuery, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(display, ''), canonical) AS query, count
		FROM faq_queries
		WHERE collection = ?
		ORDER BY count DESC, query ASC
		LIMIT ?
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

var _ faq.QueryStats = (*SQLiteStore)(nil)
