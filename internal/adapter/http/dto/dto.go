package dto

import (
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/shopspring/decimal"
)

// CreateOfferRequest is the request body for offer creation.
// Amounts accept JSON strings ("12.50") or numbers.
type CreateOfferRequest struct {
	FromCurrency string          `json:"from_currency" binding:"required,currency"`
	FromValue    decimal.Decimal `json:"from_value"`
	ToCurrency   string          `json:"to_currency" binding:"required,currency"`
	ToValue      decimal.Decimal `json:"to_value"`
}

// IdempotencyHeader carries the optional retry key of a create request.
type IdempotencyHeader struct {
	Key string `header:"Idempotency-Key" binding:"omitempty,max=100,safe_id"`
}

// TopupRequest is the request body for wallet topup.
type TopupRequest struct {
	Currency string          `json:"currency" binding:"required,currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// ListOffersQuery holds the query parameters of GET /offers.
type ListOffersQuery struct {
	FromCurrency string `form:"from_currency" binding:"omitempty,currency"`
	ToCurrency   string `form:"to_currency" binding:"omitempty,currency"`
	Mine         bool   `form:"mine"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset       int    `form:"offset" binding:"omitempty,min=0"`
}

// ListTransactionsQuery holds the query parameters of GET /transactions.
// From and To are RFC 3339 timestamps.
type ListTransactionsQuery struct {
	Scope    string `form:"scope" binding:"omitempty,oneof=mine all"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	From     string `form:"from"`
	To       string `form:"to"`
}

// VolumeStatsQuery holds the query parameters of GET /stats/volume.
type VolumeStatsQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=day week month all"`
}

// OfferResponse is the wire form of an offer.
type OfferResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	FromCurrency string  `json:"from_currency"`
	FromValue    string  `json:"from_value"`
	ToCurrency   string  `json:"to_currency"`
	ToValue      string  `json:"to_value"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	ClosedAt     *string `json:"closed_at,omitempty"`
}

// TransactionResponse is the wire form of a settled exchange.
type TransactionResponse struct {
	ID             string  `json:"id"`
	OfferID        string  `json:"offer_id"`
	CounterOfferID *string `json:"counter_offer_id,omitempty"`
	FromUserID     string  `json:"from_user_id"`
	FromValue      string  `json:"from_value"`
	FromCurrency   string  `json:"from_currency"`
	ToUserID       string  `json:"to_user_id"`
	ToValue        string  `json:"to_value"`
	ToCurrency     string  `json:"to_currency"`
	CreatedAt      string  `json:"created_at"`
}

// BalanceResponse is one currency row of a wallet.
type BalanceResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// WalletResponse is the response body for wallet reads and writes.
type WalletResponse struct {
	UserID       string                `json:"user_id"`
	Balances     []BalanceResponse     `json:"balances"`
	Transactions []TransactionResponse `json:"transactions,omitempty"`
}

// CancelResponse reports the refund of a cancelled offer.
type CancelResponse struct {
	Offer    OfferResponse `json:"offer"`
	Refunded string        `json:"refunded"`
	Currency string        `json:"currency"`
}

// VolumeResponse is the settled volume of one currency pair.
type VolumeResponse struct {
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	Count        int64  `json:"count"`
	FromVolume   string `json:"from_volume"`
	ToVolume     string `json:"to_volume"`
}

// TransactionListResponse wraps paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FromOffer converts domain.Offer to its DTO.
func FromOffer(o *domain.Offer) OfferResponse {
	resp := OfferResponse{
		ID:           o.ID.String(),
		UserID:       o.UserID.String(),
		FromCurrency: o.FromCurrency,
		FromValue:    o.FromValue.String(),
		ToCurrency:   o.ToCurrency,
		ToValue:      o.ToValue.String(),
		Status:       string(o.Status),
		CreatedAt:    formatTime(o.CreatedAt),
	}
	if o.ClosedAt != nil {
		s := formatTime(*o.ClosedAt)
		resp.ClosedAt = &s
	}
	return resp
}

// FromOffers converts a slice of offers, never returning nil.
func FromOffers(offers []domain.Offer) []OfferResponse {
	out := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		out = append(out, FromOffer(&offers[i]))
	}
	return out
}

// FromTransaction converts domain.Transaction to its DTO.
func FromTransaction(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:           tx.ID.String(),
		OfferID:      tx.OfferID.String(),
		FromUserID:   tx.FromUserID.String(),
		FromValue:    tx.FromValue.String(),
		FromCurrency: tx.FromCurrency,
		ToUserID:     tx.ToUserID.String(),
		ToValue:      tx.ToValue.String(),
		ToCurrency:   tx.ToCurrency,
		CreatedAt:    formatTime(tx.CreatedAt),
	}
	if tx.CounterOfferID != nil {
		s := tx.CounterOfferID.String()
		resp.CounterOfferID = &s
	}
	return resp
}

// FromTransactions converts a slice of transactions, never returning nil.
func FromTransactions(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, FromTransaction(&txns[i]))
	}
	return out
}

func fromBalances(balances []domain.Balance) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, BalanceResponse{Currency: b.Currency, Amount: b.Amount.String()})
	}
	return out
}

// FromWallet converts a bare wallet (no history) to its DTO.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		UserID:   w.UserID.String(),
		Balances: fromBalances(w.Balances),
	}
}

// FromWalletView converts a wallet together with its history.
func FromWalletView(v *ports.WalletView) WalletResponse {
	return WalletResponse{
		UserID:       v.UserID.String(),
		Balances:     fromBalances(v.Balances),
		Transactions: FromTransactions(v.Transactions),
	}
}

// FromCancelResult converts the outcome of a cancellation.
func FromCancelResult(r *ports.CancelResult) CancelResponse {
	return CancelResponse{
		Offer:    FromOffer(r.Offer),
		Refunded: r.Refunded.String(),
		Currency: r.Currency,
	}
}

// FromVolumes converts aggregated pair volumes.
func FromVolumes(stats []domain.PairVolume) []VolumeResponse {
	out := make([]VolumeResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, VolumeResponse{
			FromCurrency: s.FromCurrency,
			ToCurrency:   s.ToCurrency,
			Count:        s.Count,
			FromVolume:   s.FromVolume.String(),
			ToVolume:     s.ToVolume.String(),
		})
	}
	return out
}
