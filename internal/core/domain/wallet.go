package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrencies is the set of currencies a freshly opened wallet holds.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CHF", "PLN"}

// Balance is one currency row of a user's wallet.
type Balance struct {
	UserID    uuid.UUID       `json:"user_id"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceKey identifies a single wallet row.
type BalanceKey struct {
	UserID   uuid.UUID
	Currency string
}

// Wallet is the full multi-currency view of a user's funds.
type Wallet struct {
	UserID   uuid.UUID `json:"user_id"`
	Balances []Balance `json:"balances"`
}

// Get returns the balance held in currency, zero if absent.
func (w *Wallet) Get(currency string) decimal.Decimal {
	for _, b := range w.Balances {
		if b.Currency == currency {
			return b.Amount
		}
	}
	return decimal.Zero
}

// SortBalanceKeys orders keys by user then currency and drops duplicates.
// Row locks are always taken in this order.
func SortBalanceKeys(keys []BalanceKey) []BalanceKey {
	out := make([]BalanceKey, 0, len(keys))
	seen := make(map[BalanceKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := compareUUID(out[i].UserID, out[j].UserID); c != 0 {
			return c < 0
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
