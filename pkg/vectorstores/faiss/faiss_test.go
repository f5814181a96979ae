package faiss

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/internal/testutil"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

func newStore(t *testing.T, path string) *Store {
	cfg := config.DefaultVectorStoreConfig()
	cfg.Path = path
	cfg.CollectionName = "memories"
	cfg.EmbeddingModelDims = 2
	store, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var records = []types.Record{
	{ID: "m1", Vector: []float32{1, 0}, Payload: map[string]any{"data": "likes tea", "user_id": "alice"}},
	{ID: "m2", Vector: []float32{0, 1}, Payload: map[string]any{"data": "likes chess", "user_id": "alice"}},
	{ID: "m3", Vector: []float32{1, 0.1}, Payload: map[string]any{"data": "likes tea", "user_id": "bob"}},
}

func TestStore_QueryBeforeWrite(t *testing.T) {
	store := newStore(t, "")
	matches, err := store.Query(testutil.TestContext(t), types.Query{Vector: []float32{1, 0}})
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, types.VectorStoreFAISS, store.Name())
}

func TestStore_UpsertAndQuery(t *testing.T) {
	store := newStore(t, "")
	ctx := testutil.TestContext(t)
	require.NoError(t, store.Upsert(ctx, records))

	matches, err := store.Query(ctx, types.Query{Vector: []float32{1, 0}, TopK: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m1", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "m3", matches[1].ID)

	matches, err = store.Query(ctx, types.Query{Vector: []float32{1, 0}, Filters: map[string]any{"user_id": "alice"}})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, []string{"m1", "m2"}, []string{matches[0].ID, matches[1].ID})
	assert.Equal(t, "likes tea", matches[0].Payload["data"])
}

func TestStore_UpsertOverwrites(t *testing.T) {
	store := newStore(t, "")
	ctx := testutil.TestContext(t)
	require.NoError(t, store.Upsert(ctx, records[:1]))
	require.NoError(t, store.Upsert(ctx, []types.Record{{ID: "m1", Vector: []float32{0, 1}, Payload: map[string]any{"data": "likes coffee"}}}))

	matches, err := store.Query(ctx, types.Query{Vector: []float32{0, 1}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "likes coffee", matches[0].Payload["data"])
}

func TestStore_RejectsWrongDimensions(t *testing.T) {
	store := newStore(t, "")
	err := store.Upsert(testutil.TestContext(t), []types.Record{{ID: "m1", Vector: []float32{1, 2, 3}}})
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ErrCodeInvalidRequest, pe.Code)
	assert.Equal(t, "upsert", pe.Operation)
}

func TestStore_ResetTwice(t *testing.T) {
	store := newStore(t, "")
	ctx := testutil.TestContext(t)
	require.NoError(t, store.Upsert(ctx, records))

	require.NoError(t, store.Reset(ctx))
	require.NoError(t, store.Reset(ctx))

	matches, err := store.Query(ctx, types.Query{Vector: []float32{1, 0}})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStore_PersistsToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "zentry.db")
	ctx := testutil.TestContext(t)

	first := newStore(t, path)
	require.NoError(t, first.Upsert(ctx, records))
	require.NoError(t, first.Close())

	second := newStore(t, path)
	matches, err := second.Query(ctx, types.Query{Vector: []float32{0, 1}, TopK: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m2", matches[0].ID)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"memories"`, quoteIdent("memories"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

func TestStore_FiltersOnNumbersAndLists(t *testing.T) {
	store := newStore(t, "")
	ctx := testutil.TestContext(t)
	require.NoError(t, store.Upsert(ctx, []types.Record{
		{ID: "m1", Vector: []float32{1, 0}, Payload: map[string]any{"count": 1, "tags": []any{"x"}}},
		{ID: "m2", Vector: []float32{0, 1}, Payload: map[string]any{"count": 2, "tags": []any{"y"}}},
	}))

	matches, err := store.Query(ctx, types.Query{Vector: []float32{1, 0}, Filters: map[string]any{"count": 1}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].ID)

	matches, err = store.Query(ctx, types.Query{Vector: []float32{1, 0}, Filters: map[string]any{"tags": []any{"y"}}})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m2", matches[0].ID)
}
