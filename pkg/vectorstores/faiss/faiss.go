// Package faiss provides a local flat vector index persisted in SQLite. Search
// is exhaustive, like a FAISS IndexFlat, scored with the configured distance.
package faiss

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

// Store keeps records in a SQLite table named after the collection. An empty
// path keeps the index in memory for the lifetime of the store.
type Store struct {
	path   string
	table  string
	config config.VectorStoreConfig

	mu sync.Mutex
	db *sql.DB

	ready common.Initializer
}

// New creates a new local store. The database is opened on first use.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	return &Store{
		path:   cfg.Path,
		table:  quoteIdent(cfg.CollectionName),
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreFAISS
}

func (s *Store) open() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	dsn := ":memory:"
	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, s.wrap(err, "create_collection")
		}
		dsn = s.path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, s.wrap(err, "create_collection")
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	s.db = db
	return db, nil
}

// Close closes the database, if it was opened. An in-memory index is lost.
func (s *Store) Close() error {
	s.ready.Invalidate()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) ensureTable(ctx context.Context, db *sql.DB) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, vector BLOB NOT NULL, payload TEXT)", s.table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return s.wrap(err, "create_collection")
		}
		return nil
	})
}

// Upsert writes records, creating the table on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap(err, "upsert")
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf(`INSERT INTO %s (id, vector, payload) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET vector = excluded.vector, payload = excluded.payload`, s.table)
	for _, r := range records {
		if len(r.Vector) != s.config.EmbeddingModelDims {
			return types.NewProviderError(types.VectorStoreFAISS, types.ErrCodeInvalidRequest,
				fmt.Sprintf("record %q has %d dimensions, index expects %d", r.ID, len(r.Vector), s.config.EmbeddingModelDims)).
				WithOperation("upsert")
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return s.wrap(err, "upsert")
		}
		if _, err := tx.ExecContext(ctx, stmt, r.ID, common.EncodeVector(r.Vector), string(payload)); err != nil {
			return s.wrap(err, "upsert")
		}
	}
	if err := tx.Commit(); err != nil {
		return s.wrap(err, "upsert")
	}
	return nil
}

// Query returns the nearest records. A missing table yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT id, vector, payload FROM %s", s.table))
	if err != nil {
		return nil, s.wrap(err, "query")
	}
	defer rows.Close()

	matches := []types.Match{}
	for rows.Next() {
		var (
			id      string
			blob    []byte
			raw     sql.NullString
			payload map[string]any
		)
		if err := rows.Scan(&id, &blob, &raw); err != nil {
			return nil, s.wrap(err, "query")
		}
		if raw.Valid && raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &payload); err != nil {
				return nil, s.wrap(err, "query")
			}
		}
		if !common.MatchesFilters(payload, q.Filters) {
			continue
		}
		score := common.Score(s.config.Distance, q.Vector, common.DecodeVector(blob))
		matches = append(matches, types.Match{ID: id, Score: score, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err, "query")
	}
	return common.SortMatches(matches, q.Limit()), nil
}

// Reset drops the table if it exists and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	s.ready.Invalidate()
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.table); err != nil {
		return s.wrap(err, "delete_collection")
	}
	return s.ensureTable(ctx, db)
}

func (s *Store) wrap(err error, operation string) error {
	return types.NewProviderError(types.VectorStoreFAISS, types.ErrCodeServerError, err.Error()).
		WithOperation(operation).WithOriginalErr(err)
}

func quoteIdent(name string) string {
	escaped := make([]rune, 0, len(name)+2)
	escaped = append(escaped, '"')
	for _, r := range name {
		if r == '"' {
			escaped = append(escaped, '"')
		}
		escaped = append(escaped, r)
	}
	return string(append(escaped, '"'))
}
