package memory

import (
	"context"
	"fmt"

	"currency-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository on a Store.
type IdempotencyRepo struct {
	store *Store
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(store *Store) *IdempotencyRepo {
	return &IdempotencyRepo{store: store}
}

// Create stores an idempotency log. Keys are unique.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return err
	}
	if _, ok := r.store.idempotency[log.Key]; ok {
		return fmt.Errorf("insert idempotency log: duplicate key %q", log.Key)
	}
	stored := *log
	r.store.idempotency[log.Key] = &stored
	t.onRollback(func() { delete(r.store.idempotency, log.Key) })
	return nil
}

// Get fetches an idempotency log by key, nil if absent.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	var found *domain.IdempotencyLog
	err := r.store.view(ctx, func() {
		if l, ok := r.store.idempotency[key]; ok {
			c := *l
			found = &c
		}
	})
	return found, err
}
