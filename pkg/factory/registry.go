package factory

import (
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/providers/anthropic"
	"github.com/zentry-ai/zentry/pkg/providers/bedrock"
	"github.com/zentry-ai/zentry/pkg/providers/delegate"
	"github.com/zentry-ai/zentry/pkg/providers/gemini"
	"github.com/zentry-ai/zentry/pkg/providers/huggingface"
	"github.com/zentry-ai/zentry/pkg/providers/ollama"
	"github.com/zentry-ai/zentry/pkg/providers/openaicompat"
	"github.com/zentry-ai/zentry/pkg/providers/vertexai"
	"github.com/zentry-ai/zentry/pkg/registry"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/azuresearch"
	"github.com/zentry-ai/zentry/pkg/vectorstores/chroma"
	"github.com/zentry-ai/zentry/pkg/vectorstores/elastic"
	"github.com/zentry-ai/zentry/pkg/vectorstores/faiss"
	"github.com/zentry-ai/zentry/pkg/vectorstores/milvus"
	"github.com/zentry-ai/zentry/pkg/vectorstores/pgvector"
	"github.com/zentry-ai/zentry/pkg/vectorstores/pinecone"
	"github.com/zentry-ai/zentry/pkg/vectorstores/qdrant"
	"github.com/zentry-ai/zentry/pkg/vectorstores/redis"
	"github.com/zentry-ai/zentry/pkg/vectorstores/upstash"
	"github.com/zentry-ai/zentry/pkg/vectorstores/vertexsearch"
	"github.com/zentry-ai/zentry/pkg/vectorstores/weaviate"
)

// defaultLLMs is the default LLM provider table
var defaultLLMs = map[string]registry.Constructor[config.LlmConfig, types.LLM]{
	types.LLMOllama:                llmCtor(ollama.NewLLM),
	types.LLMOpenAI:                openaicompat.LLMConstructor(openaicompat.OpenAI),
	types.LLMGroq:                  openaicompat.LLMConstructor(openaicompat.Groq),
	types.LLMTogether:              openaicompat.LLMConstructor(openaicompat.Together),
	types.LLMAWSBedrock:            llmCtor(bedrock.NewLLM),
	types.LLMLiteLLM:               openaicompat.LLMConstructor(openaicompat.LiteLLM),
	types.LLMAzureOpenAI:           openaicompat.LLMConstructor(openaicompat.AzureOpenAI),
	types.LLMOpenAIStructured:      openaicompat.LLMConstructor(openaicompat.OpenAIStructured),
	types.LLMAnthropic:             llmCtor(anthropic.NewLLM),
	types.LLMAzureOpenAIStructured: openaicompat.LLMConstructor(openaicompat.AzureOpenAIStructured),
	types.LLMGemini:                llmCtor(gemini.NewLLM),
	types.LLMDeepSeek:              openaicompat.LLMConstructor(openaicompat.DeepSeek),
	types.LLMXAI:                   openaicompat.LLMConstructor(openaicompat.XAI),
	types.LLMSarvam:                openaicompat.LLMConstructor(openaicompat.Sarvam),
	types.LLMLMStudio:              openaicompat.LLMConstructor(openaicompat.LMStudio),
	types.LLMLangchain:             llmCtor(delegate.NewLLM),
}

// defaultEmbedders is the default embedder provider table
var defaultEmbedders = map[string]registry.Constructor[config.EmbedderConfig, types.Embedder]{
	types.EmbedderOpenAI:      openaicompat.EmbedderConstructor(openaicompat.OpenAIEmbedding),
	types.EmbedderOllama:      embedderCtor(ollama.NewEmbedder),
	types.EmbedderHuggingFace: huggingface.NewEmbedder,
	types.EmbedderAzureOpenAI: openaicompat.EmbedderConstructor(openaicompat.AzureOpenAIEmbedding),
	types.EmbedderGemini:      embedderCtor(gemini.NewEmbedder),
	types.EmbedderVertexAI:    embedderCtor(vertexai.NewEmbedder),
	types.EmbedderTogether:    openaicompat.EmbedderConstructor(openaicompat.TogetherEmbedding),
	types.EmbedderLMStudio:    openaicompat.EmbedderConstructor(openaicompat.LMStudioEmbedding),
	types.EmbedderLangchain:   embedderCtor(delegate.NewEmbedder),
	types.EmbedderAWSBedrock:  embedderCtor(bedrock.NewEmbedder),
}

// defaultVectorStores is the default vector store provider table
var defaultVectorStores = map[string]registry.Constructor[config.VectorStoreConfig, types.VectorStore]{
	types.VectorStoreQdrant:               storeCtor(qdrant.New),
	types.VectorStoreChroma:               storeCtor(chroma.New),
	types.VectorStorePGVector:             storeCtor(pgvector.New),
	types.VectorStoreMilvus:               storeCtor(milvus.New),
	types.VectorStoreUpstashVector:        storeCtor(upstash.New),
	types.VectorStoreAzureAISearch:        storeCtor(azuresearch.New),
	types.VectorStorePinecone:             storeCtor(pinecone.New),
	types.VectorStoreRedis:                storeCtor(redis.New),
	types.VectorStoreElasticsearch:        storeCtor(elastic.New),
	types.VectorStoreVertexAIVectorSearch: storeCtor(vertexsearch.New),
	types.VectorStoreOpenSearch:           storeCtor(elastic.NewOpenSearch),
	types.VectorStoreSupabase:             storeCtor(pgvector.NewSupabase),
	types.VectorStoreWeaviate:             storeCtor(weaviate.New),
	types.VectorStoreFAISS:                storeCtor(faiss.New),
	types.VectorStoreLangchain:            storeCtor(delegate.NewVectorStore),
}

// RegisterDefaultProviders registers the default provider tables with f
func RegisterDefaultProviders(f Factories) {
	RegisterDefaultLLMs(f.LLM.registry)
	RegisterDefaultEmbedders(f.Embedder.registry)
	RegisterDefaultVectorStores(f.VectorStore.registry)
}

// RegisterDefaultLLMs registers the default LLM providers with reg
func RegisterDefaultLLMs(reg *LlmRegistry) {
	for name, ctor := range defaultLLMs {
		reg.MustRegister(name, ctor)
	}
}

// RegisterDefaultEmbedders registers the default embedders with reg
func RegisterDefaultEmbedders(reg *EmbedderRegistry) {
	for name, ctor := range defaultEmbedders {
		reg.MustRegister(name, ctor)
	}
}

// RegisterDefaultVectorStores registers the default vector stores with reg
func RegisterDefaultVectorStores(reg *VectorStoreRegistry) {
	for name, ctor := range defaultVectorStores {
		reg.MustRegister(name, ctor)
	}
}

// construct adapts a constructor returning a concrete type S to one returning
// the category interface T. The typed wrappers below check at compile time
// that S implements T.
func construct[C, T, S any](fn func(C) (S, error)) registry.Constructor[C, T] {
	return func(cfg C) (T, error) {
		instance, err := fn(cfg)
		if err != nil {
			var zero T
			return zero, err
		}
		return any(instance).(T), nil
	}
}

func llmCtor[S types.LLM](fn func(config.LlmConfig) (S, error)) registry.Constructor[config.LlmConfig, types.LLM] {
	return construct[config.LlmConfig, types.LLM](fn)
}

func embedderCtor[S types.Embedder](fn func(config.EmbedderConfig) (S, error)) registry.Constructor[config.EmbedderConfig, types.Embedder] {
	return construct[config.EmbedderConfig, types.Embedder](fn)
}

func storeCtor[S types.VectorStore](fn func(config.VectorStoreConfig) (S, error)) registry.Constructor[config.VectorStoreConfig, types.VectorStore] {
	return construct[config.VectorStoreConfig, types.VectorStore](fn)
}
