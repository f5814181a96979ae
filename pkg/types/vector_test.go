package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordText(t *testing.T) {
	assert.Equal(t, "hello", Record{Payload: map[string]any{PayloadDataKey: "hello"}}.Text())
	assert.Empty(t, Record{Payload: map[string]any{PayloadDataKey: 42}}.Text())
	assert.Empty(t, Record{}.Text())
}

func TestQueryLimit(t *testing.T) {
	assert.Equal(t, DefaultTopK, Query{}.Limit())
	assert.Equal(t, DefaultTopK, Query{TopK: -3}.Limit())
	assert.Equal(t, 12, Query{TopK: 12}.Limit())
}

func TestNewMessages(t *testing.T) {
	messages := NewMessages("", "hi")
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, messages)

	messages = NewMessages("be brief", "hi")
	assert.Len(t, messages, 2)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, "hi", messages[1].Content)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []Category{CategoryLLM, CategoryEmbedder, CategoryVectorStore}, Categories())
}
