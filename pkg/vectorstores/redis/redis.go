// Package redis provides the Redis vector store adapter on RediSearch. Records
// are hashes under a per-collection key prefix, indexed with FT.CREATE.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

const scoreField = "vector_score"

var metrics = map[string]string{
	config.DistanceCosine:    "COSINE",
	config.DistanceEuclidean: "L2",
	config.DistanceDot:       "IP",
}

// Store keeps records as hashes indexed by a RediSearch vector index named
// after the collection.
type Store struct {
	rdb    *redis.Client
	index  string
	prefix string
	config config.VectorStoreConfig
	ready  common.Initializer
}

// New creates a new Redis store from url (redis://...) or host, port and
// password. It performs no I/O.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		rdb:    redis.NewClient(opts),
		index:  cfg.CollectionName,
		prefix: cfg.CollectionName + ":",
		config: cfg,
	}, nil
}

// Options builds client options. RESP2 is used so FT.SEARCH replies are flat arrays.
func Options(cfg config.VectorStoreConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, types.NewInvalidConfigError("url", "%v", err)
		}
		opts = parsed
	} else {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = 6379
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
			Username: cfg.User,
			Password: cfg.Password,
		}
	}
	opts.Protocol = 2
	if cfg.Timeout > 0 {
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	return opts, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreRedis
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) ensureIndex(ctx context.Context) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		err := s.rdb.Do(ctx, createArgs(s.index, s.prefix, s.config)...).Err()
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "index already exists") {
			return wrap(err, "create_collection")
		}
		return nil
	})
}

func createArgs(index, prefix string, cfg config.VectorStoreConfig) []any {
	args := []any{"FT.CREATE", index, "ON", "HASH", "PREFIX", 1, prefix, "SCHEMA"}
	for _, f := range common.IndexedFields {
		args = append(args, f, "TAG")
	}
	return append(args, "vector", "VECTOR", "HNSW", 6,
		"TYPE", "FLOAT32", "DIM", cfg.EmbeddingModelDims, "DISTANCE_METRIC", metrics[cfg.Distance])
}

// Upsert writes records, creating the index on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	for _, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return types.NewProviderError(types.VectorStoreRedis, types.ErrCodeInvalidRequest, err.Error()).
				WithOperation("upsert").WithOriginalErr(err)
		}
		values := map[string]any{
			"id":      r.ID,
			"payload": string(payload),
			"vector":  common.EncodeVector(r.Vector),
		}
		for k, v := range common.IndexedValues(r.Payload) {
			values[k] = v
		}
		pipe.HSet(ctx, s.prefix+r.ID, values)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return wrap(err, "upsert")
	}
	return nil
}

// Query returns the nearest records. A missing index yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	indexed, rest := common.SplitFilters(q.Filters)
	k := q.Limit()
	if len(rest) > 0 {
		k *= common.Overfetch
	}

	args := []any{"FT.SEARCH", s.index, SearchQuery(indexed, k),
		"PARAMS", 2, "vec", common.EncodeVector(q.Vector),
		"SORTBY", scoreField, "ASC",
		"LIMIT", 0, k,
		"RETURN", 3, "id", "payload", scoreField,
		"DIALECT", 2,
	}
	reply, err := s.rdb.Do(ctx, args...).Result()
	if err != nil {
		if isMissingIndex(err) {
			return []types.Match{}, nil
		}
		return nil, wrap(err, "query")
	}

	docs, err := ParseSearchReply(reply)
	if err != nil {
		return nil, types.NewProviderError(types.VectorStoreRedis, types.ErrCodeServerError, err.Error()).
			WithOperation("query").WithOriginalErr(err)
	}

	matches := []types.Match{}
	for _, doc := range docs {
		var payload map[string]any
		if raw := doc["payload"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, types.NewProviderError(types.VectorStoreRedis, types.ErrCodeServerError, err.Error()).
					WithOperation("query").WithOriginalErr(err)
			}
		}
		if !common.MatchesFilters(payload, rest) {
			continue
		}
		distance, _ := strconv.ParseFloat(doc[scoreField], 64)
		matches = append(matches, types.Match{ID: doc["id"], Score: s.score(distance), Payload: payload})
	}
	return common.SortMatches(matches, q.Limit()), nil
}

// Reset drops the index together with its hashes, tolerating a missing index,
// and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()
	if err := s.rdb.Do(ctx, "FT.DROPINDEX", s.index, "DD").Err(); err != nil && !isMissingIndex(err) {
		return wrap(err, "delete_collection")
	}
	return s.ensureIndex(ctx)
}

// score turns a RediSearch distance into a similarity where higher is closer.
// COSINE and IP distances are reported as 1 - similarity.
func (s *Store) score(distance float64) float64 {
	if s.config.Distance == config.DistanceEuclidean {
		return -distance
	}
	return 1 - distance
}

// SearchQuery renders a KNN query with optional tag pre-filters, e.g.
// (@user_id:{alice})=>[KNN 5 @vector $vec AS vector_score].
func SearchQuery(filters map[string]any, k int) string {
	prefilter := "*"
	if len(filters) > 0 {
		clauses := make([]string, 0, len(filters))
		for _, key := range common.SortedKeys(filters) {
			clauses = append(clauses, fmt.Sprintf("@%s:{%s}", key, EscapeTag(fmt.Sprint(filters[key]))))
		}
		prefilter = "(" + strings.Join(clauses, " ") + ")"
	}
	return fmt.Sprintf("%s=>[KNN %d @vector $vec AS %s]", prefilter, k, scoreField)
}

// EscapeTag backslash-escapes the characters RediSearch treats as tag syntax.
func EscapeTag(value string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(",.<>{}[]\"':;!@#$%^&*()-+=~|/\\ ", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseSearchReply decodes a RESP2 FT.SEARCH reply of the form
// [total, key, [field, value, ...], key, [...], ...] into field maps.
func ParseSearchReply(reply any) ([]map[string]string, error) {
	items, ok := reply.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("unexpected FT.SEARCH reply %T", reply)
	}
	docs := make([]map[string]string, 0, (len(items)-1)/2)
	for i := 1; i+1 < len(items); i += 2 {
		fields, ok := items[i+1].([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected document fields %T", items[i+1])
		}
		doc := make(map[string]string, len(fields)/2)
		for j := 0; j+1 < len(fields); j += 2 {
			doc[fmt.Sprint(fields[j])] = fmt.Sprint(fields[j+1])
		}
		if doc["id"] == "" {
			doc["id"] = fmt.Sprint(items[i])
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func isMissingIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index name") || strings.Contains(msg, "no such index")
}

func wrap(err error, operation string) error {
	code := types.ErrCodeNetwork
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		code = types.ErrCodeServerError
		if strings.HasPrefix(err.Error(), "NOAUTH") || strings.HasPrefix(err.Error(), "WRONGPASS") {
			code = types.ErrCodeAuthentication
		}
	}
	return types.NewProviderError(types.VectorStoreRedis, code, err.Error()).WithOperation(operation).WithOriginalErr(err)
}
