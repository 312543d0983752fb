package memory

import (
	"context"

	"currency-exchange/internal/core/domain"
)

// AuditRepo implements ports.AuditRepository on a Store.
type AuditRepo struct {
	store *Store
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(store *Store) *AuditRepo {
	return &AuditRepo{store: store}
}

// Create appends an audit entry.
func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.store.view(ctx, func() {
		r.store.audit = append(r.store.audit, *log)
	})
}

// List returns every audit entry in insertion order.
func (r *AuditRepo) List(ctx context.Context) ([]domain.AuditLog, error) {
	var logs []domain.AuditLog
	err := r.store.view(ctx, func() {
		logs = append(logs, r.store.audit...)
	})
	return logs, err
}
