// Package memory is a process-local implementation of the repository ports.
// It backs the service when storage.driver is "memory" and gives the engine
// tests the same unit-of-work semantics the PostgreSQL adapter provides.
package memory

import (
	"context"
	"fmt"
	"time"

	"currency-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store holds all state behind a single-slot semaphore. A unit of work owns
// the slot from Begin until Commit or Rollback, so reads never observe a
// partially applied unit and all updates are linearizable.
type Store struct {
	sem          chan struct{}
	balances     map[domain.BalanceKey]*domain.Balance
	offers       map[uuid.UUID]*domain.Offer
	transactions []domain.Transaction
	idempotency  map[string]*domain.IdempotencyLog
	audit        []domain.AuditLog
	now          func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sem:         make(chan struct{}, 1),
		balances:    make(map[domain.BalanceKey]*domain.Balance),
		offers:      make(map[uuid.UUID]*domain.Offer),
		idempotency: make(map[string]*domain.IdempotencyLog),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Begin implements ports.DBTransactor. It blocks until the store is free or
// ctx is done.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: s}, nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "memory"
}

// Ping implements ports.HealthChecker; it fails only if the store stays
// busy past ctx.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, func() {})
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquire store: %w: %w", domain.ErrStoreUnavailable, ctx.Err())
	}
}

func (s *Store) release() {
	<-s.sem
}

// view runs fn with exclusive access outside of any unit of work.
func (s *Store) view(ctx context.Context, fn func()) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	fn()
	return nil
}

// txFrom unwraps a transaction handed back by a repository caller.
func (s *Store) txFrom(ctx context.Context, tx pgx.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, fmt.Errorf("memory store: transaction %T was not started by this store", tx)
	}
	if t.done {
		return nil, pgx.ErrTxClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return t, nil
}
