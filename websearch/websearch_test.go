package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTavilyClientRequiresKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	client, err := NewTavilyClient(3)
	assert.Nil(t, client)
	assert.Error(t, err)
}

func TestTavilyQuery(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":"q","results":[
			{"title":"A","url":"https://a","content":"alpha","score":0.9},
			{"title":"B","url":"https://b","content":"","score":0.5}
		]}`))
	}))
	defer server.Close()

	client := NewTavilyClientWith("test-key", server.URL, server.Client(), 0)
	results, err := client.Query(context.Background(), "what is nmap")
	require.NoError(t, err)

	assert.Equal(t, "what is nmap", got.Query)
	assert.Equal(t, DefaultMaxResults, got.MaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, workflow.SearchResult{Title: "A", URL: "https://a", Content: "alpha"}, results[0])
	assert.Empty(t, results[1].Content)
}

func TestTavilyQueryErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer server.Close()

	client := NewTavilyClientWith("bad", server.URL, server.Client(), 5)
	_, err := client.Query(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

type countingSearcher struct {
	mu      sync.Mutex
	results []workflow.SearchResult
	err     error
	calls   int
}

func (s *countingSearcher) Query(ctx context.Context, query string) ([]workflow.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.results, s.err
}

type memoryStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return redis.NewStringResult("", m.readErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestCachedSearcherServesRepeatQueriesFromStore(t *testing.T) {
	inner := &countingSearcher{results: []workflow.SearchResult{{Title: "t", Content: "c"}}}
	store := newMemoryStore()
	cached := NewCachedSearcher(inner, store, time.Hour, 3)

	first, err := cached.Query(context.Background(), "What is  XSS")
	require.NoError(t, err)
	second, err := cached.Query(context.Background(), "what is xss")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	for _, ttl := range store.ttls {
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestCachedSearcherKeyIncludesMaxResults(t *testing.T) {
	a := NewCachedSearcher(nil, nil, time.Hour, 3)
	b := NewCachedSearcher(nil, nil, time.Hour, 5)
	assert.NotEqual(t, a.key("q"), b.key("q"))
	assert.Equal(t, a.key("Q "), a.key("q"))
}

func TestCachedSearcherFallsThroughOnStoreError(t *testing.T) {
	inner := &countingSearcher{results: []workflow.SearchResult{{Content: "c"}}}
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	cached := NewCachedSearcher(inner, store, time.Minute, 3)

	results, err := cached.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSearcherIgnoresCorruptEntries(t *testing.T) {
	inner := &countingSearcher{results: []workflow.SearchResult{{Content: "fresh"}}}
	store := newMemoryStore()
	cached := NewCachedSearcher(inner, store, time.Minute, 3)
	store.data[cached.key("q")] = "not json"

	results, err := cached.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "fresh", results[0].Content)
}

func TestCachedSearcherDoesNotCacheFailures(t *testing.T) {
	inner := &countingSearcher{err: errors.New("quota exceeded")}
	store := newMemoryStore()
	cached := NewCachedSearcher(inner, store, time.Minute, 3)

	_, err := cached.Query(context.Background(), "q")
	assert.Error(t, err)
	assert.Empty(t, store.data)
}

func TestBreakerSearcherOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &countingSearcher{err: errors.New("503")}
	breaker := NewBreakerSearcher(inner, 2, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := breaker.Query(context.Background(), "q")
		assert.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	_, err := breaker.Query(context.Background(), "q")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerSearcherPassesResults(t *testing.T) {
	inner := &countingSearcher{results: []workflow.SearchResult{{Content: "ok"}}}
	breaker := NewBreakerSearcher(inner, 3, time.Minute)

	results, err := breaker.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", results[0].Content)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestBreakerSearcherIgnoresCallerCancellation(t *testing.T) {
	inner := &countingSearcher{results: []workflow.SearchResult{{Content: "ok"}}}
	breaker := NewBreakerSearcher(inner, 2, time.Minute)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := breaker.Query(cancelled, "q")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
	assert.Equal(t, 0, inner.calls)

	results, err := breaker.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", results[0].Content)
	assert.Equal(t, 1, inner.calls)
}

func TestBreakerSearcherDoesNotTripOnCancelledProviderCalls(t *testing.T) {
	inner := &countingSearcher{err: fmt.Errorf("tavily request: %w", context.Canceled)}
	breaker := NewBreakerSearcher(inner, 2, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := breaker.Query(context.Background(), "q")
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.Equal(t, gobreaker.StateClosed, breaker.State())
	assert.Equal(t, 3, inner.calls)
}
