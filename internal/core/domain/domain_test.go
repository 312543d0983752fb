package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOffer_IsOpen(t *testing.T) {
	tests := []struct {
		name     string
		status   OfferStatus
		open     bool
		terminal bool
	}{
		{"open", OfferStatusOpen, true, false},
		{"settled", OfferStatusSettled, false, true},
		{"cancelled", OfferStatusCancelled, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Offer{Status: tt.status}
			assert.Equal(t, tt.open, o.IsOpen())
			assert.Equal(t, tt.terminal, o.IsTerminal())
		})
	}
}

func TestOffer_Matches(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	base := &Offer{
		ID: uuid.New(), UserID: alice,
		FromCurrency: "USD", FromValue: decimal.NewFromInt(50),
		ToCurrency: "EUR", ToValue: decimal.NewFromInt(40),
	}

	tests := []struct {
		name  string
		other Offer
		want  bool
	}{
		{"exact mirror", Offer{ID: uuid.New(), UserID: bob, FromCurrency: "EUR", FromValue: decimal.NewFromInt(40), ToCurrency: "USD", ToValue: decimal.NewFromInt(50)}, true},
		{"generous counterparty", Offer{ID: uuid.New(), UserID: bob, FromCurrency: "EUR", FromValue: decimal.NewFromInt(45), ToCurrency: "USD", ToValue: decimal.NewFromInt(30)}, true},
		{"asks too much", Offer{ID: uuid.New(), UserID: bob, FromCurrency: "EUR", FromValue: decimal.NewFromInt(40), ToCurrency: "USD", ToValue: decimal.NewFromInt(60)}, false},
		{"gives too little", Offer{ID: uuid.New(), UserID: bob, FromCurrency: "EUR", FromValue: decimal.NewFromInt(39), ToCurrency: "USD", ToValue: decimal.NewFromInt(50)}, false},
		{"same owner", Offer{ID: uuid.New(), UserID: alice, FromCurrency: "EUR", FromValue: decimal.NewFromInt(40), ToCurrency: "USD", ToValue: decimal.NewFromInt(50)}, false},
		{"wrong pair", Offer{ID: uuid.New(), UserID: bob, FromCurrency: "GBP", FromValue: decimal.NewFromInt(40), ToCurrency: "USD", ToValue: decimal.NewFromInt(50)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Matches(&tt.other))
			assert.Equal(t, tt.want, tt.other.Matches(base))
		})
	}
}

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"50", true},
		{"0.00000001", true},
		{"0", false},
		{"-1", false},
		{"0.000000001", false},
		{"9999999999999999999999999999.99999999", true},
		{"1e27", true},
		{"1e28", false},
		{"1e30", false},
		{"1e2000000", false},
		{"1e-2000000", false},
		{"1.00000000000000000000", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, IsCurrencyCode("USD"))
	assert.False(t, IsCurrencyCode("usd"))
	assert.False(t, IsCurrencyCode("US"))
	assert.False(t, IsCurrencyCode(""))
}

func TestSortBalanceKeys(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	keys := SortBalanceKeys([]BalanceKey{
		{UserID: b, Currency: "EUR"},
		{UserID: a, Currency: "USD"},
		{UserID: b, Currency: "EUR"},
		{UserID: a, Currency: "EUR"},
	})

	assert.Equal(t, []BalanceKey{
		{UserID: a, Currency: "EUR"},
		{UserID: a, Currency: "USD"},
		{UserID: b, Currency: "EUR"},
	}, keys)
}

func TestWallet_Get(t *testing.T) {
	w := &Wallet{Balances: []Balance{{Currency: "USD", Amount: decimal.NewFromInt(10)}}}
	assert.True(t, w.Get("USD").Equal(decimal.NewFromInt(10)))
	assert.True(t, w.Get("EUR").IsZero())
}

func TestTransaction_Involves(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	tx := &Transaction{FromUserID: from, ToUserID: to}
	assert.True(t, tx.Involves(from))
	assert.True(t, tx.Involves(to))
	assert.False(t, tx.Involves(uuid.New()))
}

func TestBuildIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := BuildIdempotencyKey(id, "OFFER-001")
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000:OFFER-001", key)
}

func TestOfferStatus_Constants(t *testing.T) {
	assert.Equal(t, OfferStatus("OPEN"), OfferStatusOpen)
	assert.Equal(t, OfferStatus("SETTLED"), OfferStatusSettled)
	assert.Equal(t, OfferStatus("CANCELLED"), OfferStatusCancelled)
}
