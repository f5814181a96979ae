// Package testutil provides shared testing utilities, fakes, and fixtures
// for use across the zentry test suite.
package testutil

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/zentry-ai/zentry/pkg/types"
)

// FakeLLM is an LLM with configurable behavior. It echoes the last user
// message unless a response is set.
type FakeLLM struct {
	mu sync.RWMutex

	name          string
	response      string
	generateError error

	generateCalled int
	lastMessages   []types.Message
	lastOptions    types.GenerateOptions
}

// NewFakeLLM creates a new fake LLM reporting name
func NewFakeLLM(name string) *FakeLLM {
	return &FakeLLM{name: name}
}

// SetResponse configures the text returned by Generate
func (m *FakeLLM) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

// SetGenerateError configures the error returned by Generate
func (m *FakeLLM) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateError = err
}

// GetGenerateCallCount returns the number of times Generate was called
func (m *FakeLLM) GetGenerateCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generateCalled
}

// LastOptions returns the options passed to the most recent Generate call
func (m *FakeLLM) LastOptions() types.GenerateOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastOptions
}

func (m *FakeLLM) Name() string {
	return m.name
}

func (m *FakeLLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalled++
	m.lastMessages = append([]types.Message(nil), messages...)
	m.lastOptions = opts
	if m.generateError != nil {
		return "", m.generateError
	}
	if m.response != "" {
		return m.response, nil
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return messages[i].Content, nil
		}
	}
	return "", nil
}

// FakeEmbedder derives a deterministic vector from the text's bytes.
type FakeEmbedder struct {
	mu sync.RWMutex

	name       string
	dims       int
	embedError error

	embedCalled int
	actions     []types.EmbeddingAction
}

// NewFakeEmbedder creates a new fake embedder producing dims-sized vectors
func NewFakeEmbedder(name string, dims int) *FakeEmbedder {
	if dims <= 0 {
		dims = 8
	}
	return &FakeEmbedder{name: name, dims: dims}
}

// SetEmbedError configures the error returned by Embed
func (m *FakeEmbedder) SetEmbedError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedError = err
}

// GetEmbedCallCount returns the number of times Embed was called
func (m *FakeEmbedder) GetEmbedCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.embedCalled
}

// Actions returns the embedding actions seen so far, in call order
func (m *FakeEmbedder) Actions() []types.EmbeddingAction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.EmbeddingAction(nil), m.actions...)
}

func (m *FakeEmbedder) Name() string {
	return m.name
}

func (m *FakeEmbedder) Dimensions() int {
	return m.dims
}

func (m *FakeEmbedder) Embed(ctx context.Context, text string, action types.EmbeddingAction) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalled++
	m.actions = append(m.actions, action)
	if m.embedError != nil {
		return nil, m.embedError
	}

	vec := make([]float32, m.dims)
	for i, b := range []byte(text) {
		vec[i%m.dims] += float32(b) / 255
	}
	return vec, nil
}

// FakeVectorStore is an in-memory VectorStore scored by cosine similarity.
type FakeVectorStore struct {
	mu sync.RWMutex

	name       string
	records    map[string]types.Record
	upsertErr  error
	queryErr   error
	resetError error

	upsertCalled int
	queryCalled  int
	resetCalled  int
}

// NewFakeVectorStore creates a new empty fake vector store
func NewFakeVectorStore(name string) *FakeVectorStore {
	return &FakeVectorStore{name: name, records: make(map[string]types.Record)}
}

// SetUpsertError configures the error returned by Upsert
func (m *FakeVectorStore) SetUpsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertErr = err
}

// SetQueryError configures the error returned by Query
func (m *FakeVectorStore) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

// SetResetError configures the error returned by Reset
func (m *FakeVectorStore) SetResetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetError = err
}

// GetResetCallCount returns the number of times Reset was called
func (m *FakeVectorStore) GetResetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resetCalled
}

// GetUpsertCallCount returns the number of times Upsert was called
func (m *FakeVectorStore) GetUpsertCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upsertCalled
}

// GetQueryCallCount returns the number of times Query was called
func (m *FakeVectorStore) GetQueryCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryCalled
}

// Len returns the number of stored records
func (m *FakeVectorStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *FakeVectorStore) Name() string {
	return m.name
}

func (m *FakeVectorStore) Upsert(ctx context.Context, records []types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalled++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *FakeVectorStore) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalled++
	if m.queryErr != nil {
		return nil, m.queryErr
	}

	matches := make([]types.Match, 0, len(m.records))
	for _, r := range m.records {
		if !MatchesFilters(r.Payload, q.Filters) {
			continue
		}
		matches = append(matches, types.Match{ID: r.ID, Score: Cosine(q.Vector, r.Vector), Payload: r.Payload})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > q.Limit() {
		matches = matches[:q.Limit()]
	}
	return matches, nil
}

func (m *FakeVectorStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalled++
	if m.resetError != nil {
		return m.resetError
	}
	m.records = make(map[string]types.Record)
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MatchesFilters reports whether payload holds every filter entry.
func MatchesFilters(payload, filters map[string]any) bool {
	for k, v := range filters {
		if payload[k] != v {
			return false
		}
	}
	return true
}
