package vectorstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.uber.org/zap"
)

// Config is everything that determines the contents of a built index.
type Config struct {
	Sources        []string
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
	K              int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.K <= 0 {
		c.K = DefaultTopK
	}
	return c
}

// Key identifies the configuration tuple. Source order is significant.
func (c Config) Key() string {
	c = c.withDefaults()
	return fmt.Sprintf("%s|%d|%d|%s|%d",
		strings.Join(c.Sources, "\x00"), c.ChunkSize, c.ChunkOverlap, c.EmbeddingModel, c.K)
}

// Ingestor loads, splits and embeds sources into a MemoryStore.
type Ingestor struct {
	client      *http.Client
	newEmbedder EmbedderFactory
	loaders     map[SourceKind]Loader
	classify    func(ctx context.Context, src string) SourceKind
	counter     func(string) int
}

type EmbedderFactory func(model string) (Embedder, error)

// OllamaEmbedders builds an OllamaEmbedder per requested model.
func OllamaEmbedders(model string) (Embedder, error) {
	return NewOllamaEmbedder(model)
}

func NewIngestor(newEmbedder EmbedderFactory) *Ingestor {
	client := &http.Client{Timeout: 60 * time.Second}
	return &Ingestor{
		client:      client,
		newEmbedder: newEmbedder,
		loaders: map[SourceKind]Loader{
			SourceWeb:      NewWebLoader(client),
			SourcePDF:      NewPDFLoader(client),
			SourceText:     NewTextLoader(client),
			SourceMarkdown: NewTextLoader(client),
		},
		classify: func(ctx context.Context, src string) SourceKind {
			return Classify(ctx, client, src)
		},
		counter: TokenCounter(),
	}
}

// Build returns a retriever over cfg.Sources. Sources that fail to load are logged and skipped;
// an empty corpus yields a store that returns no documents.
func (in *Ingestor) Build(ctx context.Context, cfg Config) (*MemoryStore, error) {
	cfg = cfg.withDefaults()

	splitter, err := NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, in.counter)
	if err != nil {
		return nil, err
	}

	embedder, err := in.newEmbedder(cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("create embedder %s: %w", cfg.EmbeddingModel, err)
	}

	tasks := make([]<-chan async.Result[[]workflow.Document], 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		tasks = append(tasks, async.Go(func() ([]workflow.Document, error) {
			return in.load(ctx, src), nil
		}))
	}

	loaded, err := async.AwaitAll(tasks...)
	if err != nil {
		return nil, err
	}

	docs, err := linq.Pipe2(
		linq.FromSlice(ctx, loaded),
		linq.Flatten[workflow.Document](),
		linq.ToSlice[workflow.Document](),
	)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		logger.Info("No documents were loaded, retriever will return no results",
			zap.Int("sources", len(cfg.Sources)))
		return NewMemoryStore(ctx, embedder, nil, cfg.K)
	}

	chunks := splitter.SplitDocuments(docs)
	logger.Info("Indexing documents",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.String("embeddingModel", embedder.Model()))

	return NewMemoryStore(ctx, embedder, chunks, cfg.K)
}

func (in *Ingestor) load(ctx context.Context, src string) []workflow.Document {
	kind := in.classify(ctx, src)
	loader, ok := in.loaders[kind]
	if !ok {
		logger.Error("No loader for source", zap.String("source", src), zap.String("kind", string(kind)))
		return nil
	}

	logger.Info("Loading source", zap.String("source", src), zap.String("kind", string(kind)))
	docs, err := loader.Load(ctx, src)
	if err != nil {
		logger.Error("Failed to load source", zap.String("source", src), zap.Error(err))
		return nil
	}
	return docs
}
