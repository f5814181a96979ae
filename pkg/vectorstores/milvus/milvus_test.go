package milvus

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/internal/testutil"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

func fakeMilvus(t *testing.T) *testutil.JSONServer {
	exists := false
	ok := func(data any) (int, any) {
		return http.StatusOK, map[string]any{"code": 0, "data": data}
	}
	return testutil.NewJSONServer(t, func(req testutil.RecordedRequest) (int, any) {
		switch req.Path {
		case "/v2/vectordb/collections/has":
			return ok(map[string]any{"has": exists})
		case "/v2/vectordb/collections/create":
			exists = true
			return ok(map[string]any{})
		case "/v2/vectordb/collections/drop":
			exists = false
			return ok(map[string]any{})
		case "/v2/vectordb/entities/upsert":
			return ok(map[string]any{"upsertCount": 1})
		case "/v2/vectordb/entities/search":
			if !exists {
				return http.StatusOK, map[string]any{"code": 100, "message": "collection not found[collection=memories]"}
			}
			return ok([]map[string]any{
				{"id": "m1", "distance": 0.92, "metadata": map[string]any{"data": "likes tea"}},
			})
		}
		return http.StatusNotFound, nil
	})
}

func newStore(t *testing.T, url string) *Store {
	cfg := config.DefaultVectorStoreConfig()
	cfg.URL = url
	cfg.CollectionName = "memories"
	cfg.EmbeddingModelDims = 2
	cfg.Token = "root:Milvus"
	store, err := New(cfg)
	require.NoError(t, err)
	return store
}

func TestStore_QueryMissingCollection(t *testing.T) {
	server := fakeMilvus(t)
	store := newStore(t, server.URL)

	matches, err := store.Query(testutil.TestContext(t), types.Query{Vector: []float32{1, 0}})
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, "Bearer root:Milvus", server.Last().Header.Get("Authorization"))
}

func TestStore_ResetTwice(t *testing.T) {
	server := fakeMilvus(t)
	store := newStore(t, server.URL)
	ctx := testutil.TestContext(t)

	require.NoError(t, store.Reset(ctx))
	require.NoError(t, store.Reset(ctx))

	var paths []string
	for _, r := range server.Requests() {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{
		"/v2/vectordb/collections/has",
		"/v2/vectordb/collections/has",
		"/v2/vectordb/collections/create",
		"/v2/vectordb/collections/has",
		"/v2/vectordb/collections/drop",
		"/v2/vectordb/collections/has",
		"/v2/vectordb/collections/create",
	}, paths)

	create := server.Last()
	assert.Equal(t, "memories", create.Body["collectionName"])
	index := create.Body["indexParams"].([]any)[0].(map[string]any)
	assert.Equal(t, "COSINE", index["metricType"])
}

func TestStore_UpsertAndQuery(t *testing.T) {
	server := fakeMilvus(t)
	store := newStore(t, server.URL)
	ctx := testutil.TestContext(t)

	require.NoError(t, store.Upsert(ctx, []types.Record{{ID: "m1", Vector: []float32{1, 0}}}))
	upsert := server.Last()
	assert.Equal(t, "/v2/vectordb/entities/upsert", upsert.Path)
	row := upsert.Body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{}, row["metadata"])

	matches, err := store.Query(ctx, types.Query{Vector: []float32{1, 0}, Filters: map[string]any{"user_id": "alice"}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].ID)
	assert.Equal(t, 0.92, matches[0].Score)
	assert.Equal(t, `metadata["user_id"] == "alice"`, server.Last().Body["filter"])
}

func TestStore_ErrorEnvelope(t *testing.T) {
	server := testutil.NewJSONServer(t, func(req testutil.RecordedRequest) (int, any) {
		return http.StatusOK, map[string]any{"code": 1800, "message": "user hasn't authenticated"}
	})
	store := newStore(t, server.URL)

	err := store.Upsert(testutil.TestContext(t), []types.Record{{ID: "m1", Vector: []float32{1, 0}}})
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ErrCodeServerError, pe.Code)
	assert.Equal(t, "create_collection", pe.Operation)
	assert.Contains(t, pe.Message, "code 1800")
}

func TestFilter(t *testing.T) {
	assert.Equal(t, "", Filter(nil))
	assert.Equal(t, `metadata["agent_id"] == "bot" and metadata["score"] == 3`,
		Filter(map[string]any{"score": 3, "agent_id": "bot"}))
}
