package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the immutable record of a settled exchange. The from side
// is the offer owner, the to side is the acceptor.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	OfferID        uuid.UUID       `json:"offer_id"`
	CounterOfferID *uuid.UUID      `json:"counter_offer_id,omitempty"`
	FromUserID     uuid.UUID       `json:"from_user_id"`
	FromValue      decimal.Decimal `json:"from_value"`
	FromCurrency   string          `json:"from_currency"`
	ToUserID       uuid.UUID       `json:"to_user_id"`
	ToValue        decimal.Decimal `json:"to_value"`
	ToCurrency     string          `json:"to_currency"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Involves returns true if userID is either party of the exchange.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	return t.FromUserID == userID || t.ToUserID == userID
}

// PairVolume aggregates settled exchanges for one currency pair.
type PairVolume struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Count        int64           `json:"count"`
	FromVolume   decimal.Decimal `json:"from_volume"`
	ToVolume     decimal.Decimal `json:"to_volume"`
}
