package types

import "context"

// LLM is the capability contract for text-generation backends.
type LLM interface {
	// Name returns the provider name the instance was built for.
	Name() string

	// Generate produces a completion for the conversation in messages.
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
}

// Embedder is the capability contract for text-embedding backends.
type Embedder interface {
	Name() string

	// Embed returns the vector for text. action tells backends that distinguish
	// document and query embeddings which side of the retrieval the text is on.
	Embed(ctx context.Context, text string, action EmbeddingAction) ([]float32, error)

	// Dimensions reports the configured vector size, or 0 when the backend decides.
	Dimensions() int
}

// Resettable is implemented by instances that hold backend state which can be
// dropped and recreated.
type Resettable interface {
	Reset(ctx context.Context) error
}

// VectorStore is the capability contract for vector-store backends.
type VectorStore interface {
	Name() string

	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to q.TopK matches ordered by descending score.
	// Querying a collection that does not exist yet returns no matches.
	Query(ctx context.Context, q Query) ([]Match, error)

	// Reset drops the collection and recreates it empty. Calling it
	// repeatedly is safe.
	Resettable
}
