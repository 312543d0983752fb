package ports

import (
	"context"
	"time"

	"currency-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventPublisher emits offer lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OfferEvent) error
}

// SettlementMetrics records the outcome of engine operations.
type SettlementMetrics interface {
	ObserveOperation(op string, outcome string, d time.Duration)
	ObserveSettlement(fromCurrency, toCurrency string)
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// SettlementService is the offer settlement engine.
type SettlementService interface {
	CreateOffer(ctx context.Context, req CreateOfferRequest) (*domain.Offer, error)
	AcceptOffer(ctx context.Context, offerID, userID uuid.UUID) (*domain.Transaction, error)
	CancelOffer(ctx context.Context, offerID, userID uuid.UUID) (*CancelResult, error)
	GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error)
	ListOpenOffers(ctx context.Context, params OfferListParams) ([]domain.Offer, error)
}

// CreateOfferRequest holds validated input for offer creation.
type CreateOfferRequest struct {
	UserID         uuid.UUID
	FromCurrency   string
	FromValue      decimal.Decimal
	ToCurrency     string
	ToValue        decimal.Decimal
	IdempotencyKey string // optional
}

// CancelResult reports the funds returned to the owner.
type CancelResult struct {
	Offer    *domain.Offer   `json:"offer"`
	Refunded decimal.Decimal `json:"refunded"`
	Currency string          `json:"currency"`
}

// WalletService manages wallet lifecycle and funding.
type WalletService interface {
	OpenWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, bool, error) // wallet, created, error
	Topup(ctx context.Context, req TopupRequest) (*domain.Wallet, error)
}

// TopupRequest holds validated input for wallet topup.
type TopupRequest struct {
	UserID   uuid.UUID
	Currency string
	Amount   decimal.Decimal
}

// ReportingService defines wallet and history read models.
type ReportingService interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*WalletView, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetVolumeStats(ctx context.Context, period string) ([]domain.PairVolume, error)
}

// WalletView is a user's balances together with their exchange history.
type WalletView struct {
	UserID       uuid.UUID            `json:"user_id"`
	Balances     []domain.Balance     `json:"balances"`
	Transactions []domain.Transaction `json:"transactions"`
}

// OfferMatcher pairs compatible open offers.
type OfferMatcher interface {
	RunOnce(ctx context.Context) (int, error)
}
