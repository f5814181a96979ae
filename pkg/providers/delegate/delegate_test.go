package delegate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/internal/testutil"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

func TestRequireClient(t *testing.T) {
	_, err := NewLLM(config.DefaultLlmConfig())
	assert.ErrorIs(t, err, ErrNoClient)

	_, err = NewEmbedder(config.DefaultEmbedderConfig())
	assert.ErrorIs(t, err, ErrNoClient)

	_, err = NewVectorStore(config.DefaultVectorStoreConfig())
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestLLM_Forwards(t *testing.T) {
	fake := testutil.NewFakeLLM("inner")
	fake.SetResponse("wrapped")

	cfg := config.DefaultLlmConfig()
	cfg.Client = fake

	llm, err := NewLLM(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.LLMLangchain, llm.Name())
	assert.Same(t, fake, llm.Unwrap())

	out, err := llm.Generate(testutil.TestContext(t), types.NewMessages("", "x"), types.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "wrapped", out)
	assert.Equal(t, 1, fake.GetGenerateCallCount())
}

func TestEmbedder_Dimensions(t *testing.T) {
	cfg := config.DefaultEmbedderConfig()
	cfg.Client = testutil.NewFakeEmbedder("inner", 4)

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, embedder.Dimensions())

	cfg.EmbeddingDims = 16
	embedder, err = NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 16, embedder.Dimensions())
}

func TestVectorStore_Forwards(t *testing.T) {
	fake := testutil.NewFakeVectorStore("inner")
	cfg := config.DefaultVectorStoreConfig()
	cfg.Client = fake

	store, err := NewVectorStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.VectorStoreLangchain, store.Name())

	ctx := testutil.TestContext(t)
	require.NoError(t, store.Upsert(ctx, []types.Record{{ID: "1", Vector: []float32{1}}}))
	matches, err := store.Query(ctx, types.Query{Vector: []float32{1}})
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	boom := errors.New("boom")
	fake.SetResetError(boom)
	assert.ErrorIs(t, store.Reset(ctx), boom)
}
