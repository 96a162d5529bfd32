package vectorstore

import (
	"context"
	"sync"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type BuildFunc func(ctx context.Context, cfg Config) (workflow.Retriever, error)

// Cache builds each retriever once per Config.Key. Concurrent callers asking for the same key share
// one build; failed builds are not cached.
type Cache struct {
	build   BuildFunc
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]workflow.Retriever
}

func NewCache(build BuildFunc) *Cache {
	return &Cache{build: build, entries: map[string]workflow.Retriever{}}
}

func (c *Cache) Get(ctx context.Context, cfg Config) (workflow.Retriever, error) {
	key := cfg.Key()

	c.mu.RLock()
	retriever, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return retriever, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		existing, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		built, err := c.build(ctx, cfg)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = built
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		logger.Error("Failed to build retriever", zap.Int("sources", len(cfg.Sources)), zap.Error(err))
		return nil, err
	}
	if shared {
		logger.Info("Shared in-flight retriever build", zap.Int("sources", len(cfg.Sources)))
	}

	return v.(workflow.Retriever), nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ForIngestor adapts Ingestor.Build to a BuildFunc.
func ForIngestor(in *Ingestor) BuildFunc {
	return func(ctx context.Context, cfg Config) (workflow.Retriever, error) {
		return in.Build(ctx, cfg)
	}
}
