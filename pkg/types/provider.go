package types

// Category identifies a family of interchangeable providers.
type Category string

const (
	CategoryLLM         Category = "llm"
	CategoryEmbedder    Category = "embedder"
	CategoryVectorStore Category = "vector_store"
)

// Categories returns every provider category in a stable order.
func Categories() []Category {
	return []Category{CategoryLLM, CategoryEmbedder, CategoryVectorStore}
}

// Provider names as registered in the default tables. Lookups are exact and
// case-sensitive.

// LLM providers
const (
	LLMOllama                = "ollama"
	LLMOpenAI                = "openai"
	LLMGroq                  = "groq"
	LLMTogether              = "together"
	LLMAWSBedrock            = "aws_bedrock"
	LLMLiteLLM               = "litellm"
	LLMAzureOpenAI           = "azure_openai"
	LLMOpenAIStructured      = "openai_structured"
	LLMAnthropic             = "anthropic"
	LLMAzureOpenAIStructured = "azure_openai_structured"
	LLMGemini                = "gemini"
	LLMDeepSeek              = "deepseek"
	LLMXAI                   = "xai"
	LLMSarvam                = "sarvam"
	LLMLMStudio              = "lmstudio"
	LLMLangchain             = "langchain"
)

// Embedding providers
const (
	EmbedderOpenAI      = "openai"
	EmbedderOllama      = "ollama"
	EmbedderHuggingFace = "huggingface"
	EmbedderAzureOpenAI = "azure_openai"
	EmbedderGemini      = "gemini"
	EmbedderVertexAI    = "vertexai"
	EmbedderTogether    = "together"
	EmbedderLMStudio    = "lmstudio"
	EmbedderLangchain   = "langchain"
	EmbedderAWSBedrock  = "aws_bedrock"
)

// Vector store providers
const (
	VectorStoreQdrant               = "qdrant"
	VectorStoreChroma               = "chroma"
	VectorStorePGVector             = "pgvector"
	VectorStoreMilvus               = "milvus"
	VectorStoreUpstashVector        = "upstash_vector"
	VectorStoreAzureAISearch        = "azure_ai_search"
	VectorStorePinecone             = "pinecone"
	VectorStoreRedis                = "redis"
	VectorStoreElasticsearch        = "elasticsearch"
	VectorStoreVertexAIVectorSearch = "vertex_ai_vector_search"
	VectorStoreOpenSearch           = "opensearch"
	VectorStoreSupabase             = "supabase"
	VectorStoreWeaviate             = "weaviate"
	VectorStoreFAISS                = "faiss"
	VectorStoreLangchain            = "langchain"
)
