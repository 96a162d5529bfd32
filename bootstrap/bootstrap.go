package bootstrap

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/crag-boot/appconfig"
	"github.com/SaiNageswarS/crag-boot/history"
	"github.com/SaiNageswarS/crag-boot/inference"
	"github.com/SaiNageswarS/crag-boot/llm"
	"github.com/SaiNageswarS/crag-boot/vectorstore"
	"github.com/SaiNageswarS/crag-boot/websearch"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"go.uber.org/zap"
)

// LoadConfig reads .env and the ini file at path, then fills defaults.
func LoadConfig(path string) (*appconfig.AppConfig, error) {
	dotenv.LoadEnv()

	cfg := appconfig.NewAppConfig()
	if err := config.LoadConfig(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// App is the wired corrective-RAG pipeline shared by the server and the CLI.
type App struct {
	Config   *appconfig.AppConfig
	Engine   *workflow.Engine
	Recorder *history.Recorder
}

// New connects every capability named by cfg. reporter receives the engine's progress events.
func New(ctx context.Context, cfg *appconfig.AppConfig, reporter workflow.Reporter) (*App, error) {
	llmClient, err := llm.NewClient(cfg.LLMProvider, cfg.LLMModel)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	logger.Info("Using LLM", zap.String("provider", cfg.LLMProvider), zap.String("model", llmClient.GetModel()))

	retriever, err := NewRetriever(ctx, cfg, vectorstore.NewCache(vectorstore.ForIngestor(vectorstore.NewIngestor(vectorstore.OllamaEmbedders))))
	if err != nil {
		return nil, fmt.Errorf("create retriever: %w", err)
	}

	searcher, err := NewWebSearch(cfg)
	if err != nil {
		return nil, fmt.Errorf("create web search: %w", err)
	}

	engine, err := workflow.NewEngineBuilder().
		WithRetriever(retriever).
		WithInference(inference.NewLLMInference(llmClient, cfg.LLMMaxTokens)).
		WithWebSearch(searcher).
		WithReporter(reporter).
		Build()
	if err != nil {
		return nil, err
	}

	recorder, err := NewRecorder(cfg)
	if err != nil {
		return nil, fmt.Errorf("create run history: %w", err)
	}

	return &App{Config: cfg, Engine: engine, Recorder: recorder}, nil
}

// NewRetriever uses Weaviate when a host is configured, otherwise an in-memory index built from
// the sources file through cache.
func NewRetriever(ctx context.Context, cfg *appconfig.AppConfig, cache *vectorstore.Cache) (workflow.Retriever, error) {
	if cfg.WeaviateHost != "" {
		embedder, err := vectorstore.NewOllamaEmbedder(cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Weaviate retriever", zap.String("host", cfg.WeaviateHost), zap.String("class", cfg.WeaviateClass))
		return vectorstore.NewWeaviateRetriever(cfg.WeaviateHost, cfg.WeaviateScheme, cfg.WeaviateClass, embedder, cfg.TopK)
	}

	sources, err := vectorstore.ReadSources(cfg.RagUrlsFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loading documents for the vector store", zap.Int("sources", len(sources)))
	return cache.Get(ctx, cfg.VectorStoreConfig(sources))
}

// NewWebSearch layers the Redis cache (when configured) and a circuit breaker over Tavily.
func NewWebSearch(cfg *appconfig.AppConfig) (workflow.WebSearch, error) {
	tavily, err := websearch.NewTavilyClient(cfg.TavilyMaxResults)
	if err != nil {
		return nil, err
	}

	var searcher workflow.WebSearch = tavily
	if cfg.RedisAddr != "" {
		client, err := websearch.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("Redis unavailable, web search results will not be cached", zap.Error(err))
		} else {
			searcher = websearch.NewCachedSearcher(searcher, client, cfg.SearchCacheDuration(), tavily.MaxResults())
		}
	}

	return websearch.NewBreakerSearcher(searcher, uint32(cfg.BreakerFailures), cfg.BreakerTimeout()), nil
}

// NewRecorder returns a disabled recorder unless history is enabled in cfg.
func NewRecorder(cfg *appconfig.AppConfig) (*history.Recorder, error) {
	if !cfg.HistoryEnabled {
		return history.NewRecorder(nil), nil
	}

	mongoClient := odm.ProvideMongoClient()
	return history.NewRecorder(odm.CollectionOf[history.RunRecord](mongoClient, cfg.MongoTenant)), nil
}
