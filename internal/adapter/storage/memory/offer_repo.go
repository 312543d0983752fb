package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OfferRepo implements ports.OfferRepository on a Store.
type OfferRepo struct {
	store *Store
}

// NewOfferRepo creates a new OfferRepo.
func NewOfferRepo(store *Store) *OfferRepo {
	return &OfferRepo{store: store}
}

// Create inserts a new offer.
func (r *OfferRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Offer) error {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return err
	}
	if _, ok := r.store.offers[o.ID]; ok {
		return fmt.Errorf("insert offer: duplicate id %s", o.ID)
	}
	stored := *o
	r.store.offers[o.ID] = &stored
	t.onRollback(func() { delete(r.store.offers, o.ID) })
	return nil
}

// GetByID returns a copy of the offer or nil if it does not exist.
func (r *OfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	var found *domain.Offer
	err := r.store.view(ctx, func() {
		found = r.store.offerCopy(id)
	})
	return found, err
}

// GetByIDForUpdate reads the offer inside a unit of work.
func (r *OfferRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Offer, error) {
	if _, err := r.store.txFrom(ctx, tx); err != nil {
		return nil, err
	}
	return r.store.offerCopy(id), nil
}

// ListOpen returns OPEN offers, oldest first.
func (r *OfferRepo) ListOpen(ctx context.Context, params ports.OfferListParams) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := r.store.view(ctx, func() {
		for _, o := range r.store.offers {
			if !o.IsOpen() {
				continue
			}
			if params.UserID != nil && o.UserID != *params.UserID {
				continue
			}
			if params.FromCurrency != "" && o.FromCurrency != params.FromCurrency {
				continue
			}
			if params.ToCurrency != "" && o.ToCurrency != params.ToCurrency {
				continue
			}
			offers = append(offers, *o)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(offers, func(i, j int) bool {
		if !offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].CreatedAt.Before(offers[j].CreatedAt)
		}
		return bytes.Compare(offers[i].ID[:], offers[j].ID[:]) < 0
	})

	if params.Limit > 0 {
		offers = window(offers, params.Offset, params.Limit)
	}
	return offers, nil
}

// Claim moves an OPEN offer to status. It returns nil when no OPEN offer
// with that id exists.
func (r *OfferRepo) Claim(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OfferStatus) (*domain.Offer, error) {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return nil, err
	}
	o, ok := r.store.offers[id]
	if !ok || !o.IsOpen() {
		return nil, nil
	}
	prev := *o
	closedAt := r.store.now()
	o.Status = status
	o.ClosedAt = &closedAt
	t.onRollback(func() { *o = prev })

	claimed := *o
	return &claimed, nil
}

func (s *Store) offerCopy(id uuid.UUID) *domain.Offer {
	o, ok := s.offers[id]
	if !ok {
		return nil
	}
	c := *o
	return &c
}

// window applies offset/limit pagination to an ordered slice.
func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
