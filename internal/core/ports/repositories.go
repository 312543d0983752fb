package ports

import (
	"context"
	"time"

	"currency-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallet balances.
// Methods accepting pgx.Tx run inside the caller's unit of work.
type WalletRepository interface {
	GetBalance(ctx context.Context, userID uuid.UUID, currency string) (decimal.Decimal, error)
	GetBalances(ctx context.Context, userID uuid.UUID) ([]domain.Balance, error)
	// LockBalances takes row locks on keys in canonical order. Keys without
	// a row are skipped.
	LockBalances(ctx context.Context, tx pgx.Tx, keys []domain.BalanceKey) error
	// Debit returns domain.ErrInsufficientBalance if the balance is short.
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) error
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) error
	// Open inserts the missing currency rows and returns how many were created.
	Open(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balances map[string]decimal.Decimal) (int, error)
}

// OfferRepository defines persistence operations for offers.
type OfferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, offer *domain.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Offer, error)
	ListOpen(ctx context.Context, params OfferListParams) ([]domain.Offer, error)
	// Claim moves an OPEN offer to a terminal status. It returns nil when the
	// offer does not exist or is no longer open.
	Claim(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OfferStatus) (*domain.Offer, error)
}

// OfferListParams filters open offers. Results are oldest first.
type OfferListParams struct {
	UserID       *uuid.UUID
	FromCurrency string
	ToCurrency   string
	Limit        int
	Offset       int
}

// TransactionRepository defines persistence operations for the transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetVolumeStats(ctx context.Context, since *time.Time) ([]domain.PairVolume, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
// A nil UserID lists every transaction.
type TransactionListParams struct {
	UserID   *uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
