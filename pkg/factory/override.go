package factory

import (
	"github.com/zentry-ai/zentry/pkg/config"
)

// StoreEmbedsServerSide reports whether a vector store configuration, in any
// form accepted by VectorStoreFactory.Create, has enable_embeddings set. The
// configuration is only read. Maps are decoded with the same weak typing as
// VectorStoreFactory.Create, so both agree on values such as 1 or "true".
func StoreEmbedsServerSide(vectorStore any) bool {
	switch v := vectorStore.(type) {
	case nil:
		return false
	case config.VectorStoreConfig:
		return v.EnableEmbeddings
	case *config.VectorStoreConfig:
		return v != nil && v.EnableEmbeddings
	case map[string]any:
		return embedsFromMap(v)
	case config.Dumper:
		m, err := v.Dump()
		return err == nil && embedsFromMap(m)
	}
	return false
}

func embedsFromMap(m map[string]any) bool {
	var flag struct {
		EnableEmbeddings bool `mapstructure:"enable_embeddings"`
	}
	return config.DecodeKnown(&flag, m) == nil && flag.EnableEmbeddings
}
