// Package pgvector provides vector stores on PostgreSQL with the pgvector
// extension. It serves both the pgvector and supabase providers.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

const undefinedTable = "42P01"

type metric struct {
	operator string
	opclass  string
}

var metrics = map[string]metric{
	config.DistanceCosine:    {"<=>", "vector_cosine_ops"},
	config.DistanceEuclidean: {"<->", "vector_l2_ops"},
	config.DistanceDot:       {"<#>", "vector_ip_ops"},
}

// Store keeps records in one table with columns id, vector and payload (jsonb).
type Store struct {
	provider string
	dsn      string
	table    string
	config   config.VectorStoreConfig

	mu   sync.Mutex
	pool *pgxpool.Pool

	ready common.Initializer
}

// New creates a pgvector store. The connection pool is opened on first use.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	return newStore(types.VectorStorePGVector, DSN(cfg), cfg), nil
}

// NewSupabase creates a store for a Supabase Postgres database, which must be
// given as connection_string.
func NewSupabase(cfg config.VectorStoreConfig) (*Store, error) {
	if cfg.ConnectionString == "" {
		return nil, types.NewInvalidConfigError("connection_string", "is required for supabase")
	}
	return newStore(types.VectorStoreSupabase, cfg.ConnectionString, cfg), nil
}

func newStore(provider, dsn string, cfg config.VectorStoreConfig) *Store {
	return &Store{
		provider: provider,
		dsn:      dsn,
		table:    pgx.Identifier{cfg.CollectionName}.Sanitize(),
		config:   cfg,
	}
}

// DSN returns connection_string when set, otherwise a postgres URL built from
// the individual connection fields.
func DSN(cfg config.VectorStoreConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	dbname := cfg.DBName
	if dbname == "" {
		dbname = "postgres"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + dbname,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return s.provider
}

func (s *Store) getPool(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}
	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return nil, types.NewInvalidConfigError("connection_string", "%v", err)
	}
	s.pool = pool
	return pool, nil
}

// Close releases the connection pool, if one was opened.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

func (s *Store) ensureTable(ctx context.Context, pool *pgxpool.Pool) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		m := metrics[s.config.Distance]
		stmts := []string{
			"CREATE EXTENSION IF NOT EXISTS vector",
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, vector vector(%d), payload JSONB)",
				s.table, s.config.EmbeddingModelDims),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (vector %s)",
				pgx.Identifier{s.config.CollectionName + "_vector_idx"}.Sanitize(), s.table, m.opclass),
		}
		for _, stmt := range stmts {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return s.wrap(err, "create_collection")
			}
		}
		return nil
	})
}

// Upsert writes records, creating the table on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	pool, err := s.getPool(ctx)
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx, pool); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, vector, payload) VALUES ($1, $2::vector, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET vector = EXCLUDED.vector, payload = EXCLUDED.payload`, s.table)
	batch := &pgx.Batch{}
	for _, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return types.NewProviderError(s.provider, types.ErrCodeInvalidRequest, err.Error()).
				WithOperation("upsert").WithOriginalErr(err)
		}
		batch.Queue(stmt, r.ID, VectorLiteral(r.Vector), string(payload))
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return s.wrap(err, "upsert")
	}
	return nil
}

// Query returns the nearest records. A missing table yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	pool, err := s.getPool(ctx)
	if err != nil {
		return nil, err
	}

	filters := "{}"
	if len(q.Filters) > 0 {
		raw, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, types.NewProviderError(s.provider, types.ErrCodeInvalidRequest, err.Error()).
				WithOperation("query").WithOriginalErr(err)
		}
		filters = string(raw)
	}

	stmt := fmt.Sprintf(`SELECT id, payload, vector %s $1::vector AS distance FROM %s
		WHERE payload @> $2::jsonb ORDER BY distance LIMIT $3`, metrics[s.config.Distance].operator, s.table)
	rows, err := pool.Query(ctx, stmt, VectorLiteral(q.Vector), filters, q.Limit())
	if err != nil {
		if isUndefinedTable(err) {
			return []types.Match{}, nil
		}
		return nil, s.wrap(err, "query")
	}
	defer rows.Close()

	matches := []types.Match{}
	for rows.Next() {
		var (
			id       string
			raw      []byte
			distance float64
		)
		if err := rows.Scan(&id, &raw, &distance); err != nil {
			return nil, s.wrap(err, "query")
		}
		var payload map[string]any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, s.wrap(err, "query")
			}
		}
		matches = append(matches, types.Match{ID: id, Score: Score(s.config.Distance, distance), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return []types.Match{}, nil
		}
		return nil, s.wrap(err, "query")
	}
	return matches, nil
}

// Reset drops the table if it exists and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	pool, err := s.getPool(ctx)
	if err != nil {
		return err
	}
	s.ready.Invalidate()
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+s.table); err != nil {
		return s.wrap(err, "delete_collection")
	}
	return s.ensureTable(ctx, pool)
}

func (s *Store) wrap(err error, operation string) error {
	code := types.ErrCodeNetwork
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "28"):
			code = types.ErrCodeAuthentication
		case pgErr.Code == undefinedTable:
			code = types.ErrCodeNotFound
		case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "42"):
			code = types.ErrCodeInvalidRequest
		default:
			code = types.ErrCodeServerError
		}
	}
	return types.NewProviderError(s.provider, code, err.Error()).WithOperation(operation).WithOriginalErr(err)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

// VectorLiteral formats v in pgvector's text input form, e.g. [1,2.5,3].
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Score converts a pgvector operator result into a similarity where higher is
// closer. The inner-product operator already returns the negated product.
func Score(distance string, d float64) float64 {
	if distance == config.DistanceCosine {
		return 1 - d
	}
	return -d
}
