package appconfig

import (
	"time"

	"github.com/SaiNageswarS/crag-boot/vectorstore"
	"github.com/SaiNageswarS/crag-boot/websearch"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	LLMProvider    string `env:"LLM-PROVIDER" ini:"llm_provider"`
	LLMModel       string `env:"LLM-MODEL" ini:"llm_model"`
	LLMMaxTokens   int    `ini:"llm_max_tokens"`
	EmbeddingModel string `env:"EMBEDDING-MODEL" ini:"embedding_model"`

	RagUrlsFile  string `env:"RAG-URLS-FILE" ini:"rag_urls_file"`
	ChunkSize    int    `ini:"chunk_size"`
	ChunkOverlap int    `ini:"chunk_overlap"`
	TopK         int    `ini:"top_k"`

	DefaultMaxRetries int  `ini:"default_max_retries"`
	WebSearchDisabled bool `ini:"web_search_disabled"`
	TavilyMaxResults  int  `ini:"tavily_max_results"`

	RedisAddr        string `env:"REDIS-ADDR" ini:"redis_addr"`
	RedisPassword    string `env:"REDIS-PASSWORD" ini:"redis_password"`
	RedisDB          int    `ini:"redis_db"`
	SearchCacheTTL   int    `ini:"search_cache_ttl_seconds"`
	BreakerFailures  int    `ini:"breaker_failures"`
	BreakerTimeoutMs int    `ini:"breaker_timeout_ms"`

	WeaviateHost   string `env:"WEAVIATE-HOST" ini:"weaviate_host"`
	WeaviateScheme string `ini:"weaviate_scheme"`
	WeaviateClass  string `ini:"weaviate_class"`

	HistoryEnabled bool   `ini:"history_enabled"`
	MongoTenant    string `ini:"mongo_tenant"`

	HTTPPort      string `env:"HTTP-PORT" ini:"http_port"`
	TraceExporter string `env:"TRACE-EXPORTER" ini:"trace_exporter"`
}

// UnsetMaxRetries marks DefaultMaxRetries as absent from the ini file, since zero is a valid setting.
const UnsetMaxRetries = -1

// NewAppConfig returns a config ready for config.LoadConfig. Keys missing from the ini section keep
// these values, so ApplyDefaults can tell them apart from explicit zeros.
func NewAppConfig() *AppConfig {
	return &AppConfig{DefaultMaxRetries: UnsetMaxRetries}
}

// ApplyDefaults fills zero values with the defaults of the corrective-RAG pipeline.
func (c *AppConfig) ApplyDefaults() {
	if c.LLMProvider == "" {
		c.LLMProvider = "ollama"
	}
	if c.LLMModel == "" {
		c.LLMModel = "llama3.1:8b"
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = 4096
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = vectorstore.DefaultEmbeddingModel
	}
	if c.RagUrlsFile == "" {
		c.RagUrlsFile = "rag_urls.txt"
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = vectorstore.DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = vectorstore.DefaultChunkOverlap
	}
	if c.TopK <= 0 {
		c.TopK = vectorstore.DefaultTopK
	}
	if c.DefaultMaxRetries < 0 {
		c.DefaultMaxRetries = workflow.DefaultMaxRetries
	}
	if c.TavilyMaxResults <= 0 {
		c.TavilyMaxResults = websearch.DefaultMaxResults
	}
	if c.SearchCacheTTL <= 0 {
		c.SearchCacheTTL = 3600
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerTimeoutMs <= 0 {
		c.BreakerTimeoutMs = 30000
	}
	if c.WeaviateScheme == "" {
		c.WeaviateScheme = "http"
	}
	if c.WeaviateClass == "" {
		c.WeaviateClass = "Document"
	}
	if c.HTTPPort == "" {
		c.HTTPPort = ":8000"
	}
	if c.TraceExporter == "" {
		c.TraceExporter = "none"
	}
}

func (c *AppConfig) SearchCacheDuration() time.Duration {
	return time.Duration(c.SearchCacheTTL) * time.Second
}

func (c *AppConfig) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutMs) * time.Millisecond
}

// VectorStoreConfig is the retriever cache key for the given sources.
func (c *AppConfig) VectorStoreConfig(sources []string) vectorstore.Config {
	return vectorstore.Config{
		Sources:        sources,
		ChunkSize:      c.ChunkSize,
		ChunkOverlap:   c.ChunkOverlap,
		EmbeddingModel: c.EmbeddingModel,
		K:              c.TopK,
	}
}
