package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferStatus represents the lifecycle state of an offer.
type OfferStatus string

const (
	OfferStatusOpen      OfferStatus = "OPEN"
	OfferStatusSettled   OfferStatus = "SETTLED"
	OfferStatusCancelled OfferStatus = "CANCELLED"
)

// Offer is a standing proposal to give FromValue of FromCurrency in exchange
// for ToValue of ToCurrency. While open, FromValue is already reserved
// (debited) from the owner's wallet.
type Offer struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	FromCurrency string          `json:"from_currency"`
	FromValue    decimal.Decimal `json:"from_value"`
	ToCurrency   string          `json:"to_currency"`
	ToValue      decimal.Decimal `json:"to_value"`
	Status       OfferStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
}

// IsOpen returns true if the offer can still be accepted or cancelled.
func (o *Offer) IsOpen() bool {
	return o.Status == OfferStatusOpen
}

// IsTerminal returns true once the offer has been settled or cancelled.
func (o *Offer) IsTerminal() bool {
	return o.Status == OfferStatusSettled || o.Status == OfferStatusCancelled
}

// Matches reports whether o and other can settle against each other: the
// currencies mirror, owners differ and each side gives at least what the
// other asks for.
func (o *Offer) Matches(other *Offer) bool {
	if o.UserID == other.UserID || o.ID == other.ID {
		return false
	}
	if o.FromCurrency != other.ToCurrency || o.ToCurrency != other.FromCurrency {
		return false
	}
	return o.FromValue.GreaterThanOrEqual(other.ToValue) &&
		other.FromValue.GreaterThanOrEqual(o.ToValue)
}
