package common

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/pkg/types"
)

func TestInitializer_RetriesUntilSuccess(t *testing.T) {
	var initializer Initializer
	calls := 0
	fn := func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("first attempt fails")
		}
		return nil
	}

	ctx := context.Background()
	assert.Error(t, initializer.Do(ctx, fn))
	require.NoError(t, initializer.Do(ctx, fn))
	require.NoError(t, initializer.Do(ctx, fn))
	assert.Equal(t, 2, calls)

	initializer.Invalidate()
	require.NoError(t, initializer.Do(ctx, fn))
	assert.Equal(t, 3, calls)
}

func TestPointID(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, id, PointID(id))

	derived := PointID("memory-1")
	_, err := uuid.Parse(derived)
	require.NoError(t, err)
	assert.Equal(t, derived, PointID("memory-1"))
	assert.NotEqual(t, derived, PointID("memory-2"))
}

func TestWithIDAndSplitID(t *testing.T) {
	payload := map[string]any{"data": "x"}
	stored := WithID(payload, "m1")
	assert.Equal(t, "m1", stored[IDPayloadKey])
	assert.NotContains(t, payload, IDPayloadKey)

	id, clean := SplitID(stored, "fallback")
	assert.Equal(t, "m1", id)
	assert.Equal(t, payload, clean)

	id, clean = SplitID(payload, "fallback")
	assert.Equal(t, "fallback", id)
	assert.Equal(t, payload, clean)
}

func TestScore(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0, Score("cosine", a, b), 1e-9)
	assert.InDelta(t, 1, Score("cosine", a, a), 1e-9)
	assert.InDelta(t, -math.Sqrt2, Score("euclidean", a, b), 1e-9)
	assert.InDelta(t, 1, Score("dot", a, a), 1e-9)
	assert.True(t, math.IsInf(Score("cosine", a, []float32{1}), -1))
}

func TestSortMatches(t *testing.T) {
	matches := []types.Match{{ID: "b", Score: 0.5}, {ID: "a", Score: 0.5}, {ID: "c", Score: 0.9}}
	sorted := SortMatches(matches, 2)
	require.Len(t, sorted, 2)
	assert.Equal(t, "c", sorted[0].ID)
	assert.Equal(t, "a", sorted[1].ID)
}

func TestMatchesFilters(t *testing.T) {
	payload := map[string]any{"user_id": "u1", "agent_id": "a1"}
	assert.True(t, MatchesFilters(payload, nil))
	assert.True(t, MatchesFilters(payload, map[string]any{"user_id": "u1"}))
	assert.False(t, MatchesFilters(payload, map[string]any{"user_id": "u2"}))
	assert.False(t, MatchesFilters(payload, map[string]any{"run_id": "r1"}))
}

func TestMatchesFilters_DecodedPayloads(t *testing.T) {
	payload := map[string]any{
		"count": float64(1),
		"tags":  []any{"x", "y"},
		"meta":  map[string]any{"lang": "en"},
	}
	assert.True(t, MatchesFilters(payload, map[string]any{"count": 1}))
	assert.True(t, MatchesFilters(payload, map[string]any{"count": int64(1)}))
	assert.False(t, MatchesFilters(payload, map[string]any{"count": 2}))

	assert.True(t, MatchesFilters(payload, map[string]any{"tags": []string{"x", "y"}}))
	assert.True(t, MatchesFilters(payload, map[string]any{"tags": []any{"x", "y"}}))
	assert.False(t, MatchesFilters(payload, map[string]any{"tags": []any{"x"}}))

	assert.True(t, MatchesFilters(payload, map[string]any{"meta": map[string]any{"lang": "en"}}))
	assert.False(t, MatchesFilters(payload, map[string]any{"meta": map[string]string{"lang": "fr"}}))
}

func TestSplitFilters(t *testing.T) {
	indexed, rest := SplitFilters(map[string]any{"user_id": "alice", "topic": "food"})
	assert.Equal(t, map[string]any{"user_id": "alice"}, indexed)
	assert.Equal(t, map[string]any{"topic": "food"}, rest)

	assert.Equal(t, map[string]string{"user_id": "alice", "run_id": "7"},
		IndexedValues(map[string]any{"user_id": "alice", "run_id": 7, "topic": "food"}))
}

func TestEncodeVector(t *testing.T) {
	v := []float32{0.5, -1.25, 3}
	b := EncodeVector(v)
	assert.Len(t, b, 12)
	assert.Equal(t, v, DecodeVector(b))
}
