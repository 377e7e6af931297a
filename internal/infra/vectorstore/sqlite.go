package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// SQLiteFileName is the database file created inside the storage directory.
const SQLiteFileName = "faq.sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS faq_entries (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT NOT NULL,
    embedding BLOB NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// SQLiteStore persists a collection in a SQLite file and answers similarity
// queries with an exact cosine scan.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// OpenSQLiteStore opens (or creates) the database under dir and binds it to collection.
func OpenSQLiteStore(dir, collection string) (*SQLiteStore, error) {
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dir))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; also keeps :memory: on a single connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, collection: collection}, nil
}

func sqliteDSN(dir string) string {
	if dir == ":memory:" {
		return ":memory:"
	}
	path := filepath.Join(dir, SQLiteFileName)
	return "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// Count implements faq.VectorStore.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faq_entries WHERE collection = ?`, s.collection).Scan(&count)
	return count, err
}

// MaxID implements faq.VectorStore.
func (s *SQLiteStore) MaxID(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(CAST(id AS INTEGER)), 0) FROM faq_entries WHERE collection = ?`, s.collection,
	).Scan(&max)
	return max, err
}

// Populate inserts entries in one transaction when the collection is empty.
func (s *SQLiteStore) Populate(ctx context.Context, entries []faq.Entry) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM faq_entries WHERE collection = ?`, s.collection).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.insert(ctx, tx, entries); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Add implements faq.VectorStore.
func (s *SQLiteStore) Add(ctx context.Context, entries []faq.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.insert(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) insert(ctx context.Context, tx *sql.Tx, entries []faq.Entry) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO faq_entries(collection, id, content, embedding, created_at) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		created := e.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, s.collection, e.ID, e.Text, encodeEmbedding(e.Embedding), created.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// Query implements faq.VectorStore.
func (s *SQLiteStore) Query(ctx context.Context, embedding []float32, k int) ([]faq.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, embedding, created_at FROM faq_entries WHERE collection = ? ORDER BY rowid`, s.collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []faq.Entry
	for rows.Next() {
		var (
			e       faq.Entry
			blob    []byte
			created string
		)
		if err := rows.Scan(&e.ID, &e.Text, &blob, &created); err != nil {
			return nil, err
		}
		if e.Embedding, err = decodeEmbedding(blob); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nearest(embedding, candidates, k)
}

// DB exposes the handle so other tables can share the database file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close implements faq.VectorStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ faq.VectorStore = (*SQLiteStore)(nil)
