package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// resultStore is the slice of the redis client the cache needs.
type resultStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedSearcher serves repeated queries from Redis. Cache errors are logged and never fail a search.
type CachedSearcher struct {
	next       workflow.WebSearch
	store      resultStore
	ttl        time.Duration
	maxResults int
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis search cache connected", zap.String("addr", addr), zap.Int("db", db))
	return client, nil
}

func NewCachedSearcher(next workflow.WebSearch, store resultStore, ttl time.Duration, maxResults int) *CachedSearcher {
	return &CachedSearcher{next: next, store: store, ttl: ttl, maxResults: maxResults}
}

func (c *CachedSearcher) Query(ctx context.Context, query string) ([]workflow.SearchResult, error) {
	key := c.key(query)

	data, err := c.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		var results []workflow.SearchResult
		jsonErr := json.Unmarshal([]byte(data), &results)
		if jsonErr == nil {
			logger.Info("Web search cache hit", zap.String("query", query))
			return results, nil
		}
		logger.Error("Failed to decode cached search results", zap.String("key", key), zap.Error(jsonErr))
	case err != redis.Nil:
		logger.Error("Failed to read search cache", zap.String("key", key), zap.Error(err))
	}

	results, err := c.next.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		logger.Error("Failed to encode search results", zap.Error(err))
		return results, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		logger.Error("Failed to write search cache", zap.String("key", key), zap.Error(err))
	}

	return results, nil
}

// key hashes the normalized query together with the result count.
func (c *CachedSearcher) key(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", normalized, c.maxResults)))
	return fmt.Sprintf("crag:websearch:%x", sum)
}
