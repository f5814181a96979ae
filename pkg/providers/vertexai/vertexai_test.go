package vertexai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/internal/testutil"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

func TestEmbedder_Predict(t *testing.T) {
	server := testutil.NewJSONServer(t, func(req testutil.RecordedRequest) (int, any) {
		return http.StatusOK, map[string]any{
			"predictions": []map[string]any{{"embeddings": map[string]any{"values": []float32{0.5, 0.5}}}},
		}
	})

	cfg := config.DefaultEmbedderConfig()
	cfg.BaseURL = server.URL
	cfg.ProjectID = "proj"
	cfg.APIKey = "ya29.token"
	cfg.MemorySearchEmbeddingType = "QUESTION_ANSWERING"

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, defaultDims, embedder.Dimensions())

	ctx := testutil.TestContext(t)
	vec, err := embedder.Embed(ctx, "doc", types.EmbeddingActionAdd)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	req := server.Last()
	assert.Equal(t, "/projects/proj/locations/us-central1/publishers/google/models/text-embedding-004:predict", req.Path)
	assert.Equal(t, "Bearer ya29.token", req.Header.Get("Authorization"))
	instances := req.Body["instances"].([]any)
	assert.Equal(t, taskRetrievalDocument, instances[0].(map[string]any)["task_type"])

	_, err = embedder.Embed(ctx, "question", types.EmbeddingActionSearch)
	require.NoError(t, err)
	instances = server.Last().Body["instances"].([]any)
	assert.Equal(t, "QUESTION_ANSWERING", instances[0].(map[string]any)["task_type"])
}

func TestNewEmbedder_RequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	_, err := NewEmbedder(config.DefaultEmbedderConfig())
	assert.ErrorIs(t, err, errNoProject)

	t.Setenv("GOOGLE_CLOUD_PROJECT", "from-env")
	embedder, err := NewEmbedder(config.DefaultEmbedderConfig())
	require.NoError(t, err)
	assert.Contains(t, embedder.path, "/projects/from-env/")
}
