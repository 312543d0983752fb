package service

import (
	"context"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"
)

// hooks are the optional collaborators shared by the engine and the matcher.
// Unset hooks default to no-ops so callers never nil-check.
type hooks struct {
	idempCache ports.IdempotencyCache
	publisher  ports.EventPublisher
	metrics    ports.SettlementMetrics
}

// Option configures optional collaborators.
type Option func(*hooks)

// WithIdempotencyCache enables the Redis fast path for idempotent offer creation.
func WithIdempotencyCache(c ports.IdempotencyCache) Option {
	return func(h *hooks) { h.idempCache = c }
}

// WithEventPublisher publishes offer lifecycle events after commit.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(h *hooks) { h.publisher = p }
}

// WithMetrics records operation outcomes.
func WithMetrics(m ports.SettlementMetrics) Option {
	return func(h *hooks) { h.metrics = m }
}

func newHooks(opts []Option) hooks {
	h := hooks{
		idempCache: noopCache{},
		publisher:  noopPublisher{},
		metrics:    noopMetrics{},
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, error) { return nil, nil }

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.OfferEvent) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}

func (noopMetrics) ObserveSettlement(string, string) {}
