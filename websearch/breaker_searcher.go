package websearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSearcher stops calling the provider after consecutive failures. An open breaker is
// reported as an ordinary search error. A caller abandoning its own request is not a provider
// failure and never moves the breaker.
type BreakerSearcher struct {
	next    workflow.WebSearch
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerSearcher(next workflow.WebSearch, consecutiveFailures uint32, openTimeout time.Duration) *BreakerSearcher {
	settings := gobreaker.Settings{
		Name:        "websearch",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerSearcher{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerSearcher) Query(ctx context.Context, query string) ([]workflow.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Query(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	results, _ := out.([]workflow.SearchResult)
	return results, nil
}

func (b *BreakerSearcher) State() gobreaker.State {
	return b.breaker.State()
}
