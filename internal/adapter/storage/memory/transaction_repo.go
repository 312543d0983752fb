package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository on a Store.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

// Create appends a transaction to the log.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return err
	}
	for i := range r.store.transactions {
		if r.store.transactions[i].ID == txn.ID {
			return fmt.Errorf("insert transaction: duplicate id %s", txn.ID)
		}
	}
	n := len(r.store.transactions)
	r.store.transactions = append(r.store.transactions, *txn)
	t.onRollback(func() { r.store.transactions = r.store.transactions[:n] })
	return nil
}

// List returns transactions in commit order with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var result []domain.Transaction
	err := r.store.view(ctx, func() {
		for _, t := range r.store.transactions {
			if params.UserID != nil && !t.Involves(*params.UserID) {
				continue
			}
			if params.From != nil && t.CreatedAt.Before(*params.From) {
				continue
			}
			if params.To != nil && t.CreatedAt.After(*params.To) {
				continue
			}
			result = append(result, t)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(result))

	// Simple pagination
	offset := (params.Page - 1) * params.PageSize
	if offset < 0 {
		offset = 0
	}
	return window(result, offset, params.PageSize), total, nil
}

// GetVolumeStats aggregates settled volume per currency pair.
func (r *TransactionRepo) GetVolumeStats(ctx context.Context, since *time.Time) ([]domain.PairVolume, error) {
	byPair := make(map[[2]string]*domain.PairVolume)
	err := r.store.view(ctx, func() {
		for _, t := range r.store.transactions {
			if since != nil && t.CreatedAt.Before(*since) {
				continue
			}
			key := [2]string{t.FromCurrency, t.ToCurrency}
			v, ok := byPair[key]
			if !ok {
				v = &domain.PairVolume{FromCurrency: t.FromCurrency, ToCurrency: t.ToCurrency}
				byPair[key] = v
			}
			v.Count++
			v.FromVolume = v.FromVolume.Add(t.FromValue)
			v.ToVolume = v.ToVolume.Add(t.ToValue)
		}
	})
	if err != nil {
		return nil, err
	}

	stats := make([]domain.PairVolume, 0, len(byPair))
	for _, v := range byPair {
		stats = append(stats, *v)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].FromCurrency != stats[j].FromCurrency {
			return stats[i].FromCurrency < stats[j].FromCurrency
		}
		return stats[i].ToCurrency < stats[j].ToCurrency
	})
	return stats, nil
}
