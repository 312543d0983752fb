package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names an offer lifecycle event.
type EventType string

const (
	EventOfferCreated   EventType = "offer.created"
	EventOfferSettled   EventType = "offer.settled"
	EventOfferCancelled EventType = "offer.cancelled"
	EventOffersMatched  EventType = "offers.matched"
)

// OfferEvent is published after a settlement unit of work commits.
type OfferEvent struct {
	Type           EventType       `json:"type"`
	OfferID        uuid.UUID       `json:"offer_id"`
	UserID         uuid.UUID       `json:"user_id"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id,omitempty"`
	FromCurrency   string          `json:"from_currency"`
	FromValue      decimal.Decimal `json:"from_value"`
	ToCurrency     string          `json:"to_currency"`
	ToValue        decimal.Decimal `json:"to_value"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewOfferEvent builds an event from the offer's current terms.
func NewOfferEvent(t EventType, o *Offer, counterparty *uuid.UUID) OfferEvent {
	return OfferEvent{
		Type:           t,
		OfferID:        o.ID,
		UserID:         o.UserID,
		CounterpartyID: counterparty,
		FromCurrency:   o.FromCurrency,
		FromValue:      o.FromValue,
		ToCurrency:     o.ToCurrency,
		ToValue:        o.ToValue,
		OccurredAt:     time.Now().UTC(),
	}
}
