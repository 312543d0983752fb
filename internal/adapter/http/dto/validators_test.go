package dto

import (
	"testing"
	"time"

	"currency-exchange/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateOfferRequest{FromCurrency: "  USD  ", ToCurrency: " EUR "}
	SanitizeStruct(&req)

	assert.Equal(t, "USD", req.FromCurrency)
	assert.Equal(t, "EUR", req.ToCurrency)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	h := IdempotencyHeader{Key: "key <script>alert('x')</script>"}
	SanitizeStruct(&h)

	assert.Contains(t, h.Key, "&lt;script&gt;")
	assert.NotContains(t, h.Key, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	note := "  settle by friday  "
	req := struct {
		Note    *string
		Missing *string
	}{Note: &note}
	SanitizeStruct(&req)

	assert.Equal(t, "settle by friday", *req.Note)
	assert.Nil(t, req.Missing)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ref-001",
		"REF_002",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"ref 001",     // space
		"ref<001>",    // angle brackets
		"ref;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"ref\n001",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestCurrencyValidator(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateOfferRequest
		wantErr bool
	}{
		{"valid", CreateOfferRequest{FromCurrency: "USD", ToCurrency: "EUR"}, false},
		{"lower case", CreateOfferRequest{FromCurrency: "usd", ToCurrency: "EUR"}, true},
		{"too long", CreateOfferRequest{FromCurrency: "USDT", ToCurrency: "EUR"}, true},
		{"missing", CreateOfferRequest{FromCurrency: "USD"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListOffersQuery_Validation(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&ListOffersQuery{FromCurrency: "GBP", Limit: 10}))
	assert.Error(t, binding.Validator.ValidateStruct(&ListOffersQuery{Limit: 501}))
	assert.Error(t, binding.Validator.ValidateStruct(&ListOffersQuery{ToCurrency: "gbp"}))
}

// --- Conversion tests ---

func TestFromOffer_AmountsAreStrings(t *testing.T) {
	closed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	o := &domain.Offer{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		FromCurrency: "USD",
		FromValue:    decimal.RequireFromString("50.25"),
		ToCurrency:   "EUR",
		ToValue:      decimal.RequireFromString("40"),
		Status:       domain.OfferStatusSettled,
		CreatedAt:    closed.Add(-time.Hour),
		ClosedAt:     &closed,
	}

	resp := FromOffer(o)
	assert.Equal(t, "50.25", resp.FromValue)
	assert.Equal(t, "40", resp.ToValue)
	assert.Equal(t, "SETTLED", resp.Status)
	require.NotNil(t, resp.ClosedAt)
	assert.Equal(t, "2024-03-01T12:00:00Z", *resp.ClosedAt)
}

func TestFromTransactions_NeverNil(t *testing.T) {
	assert.NotNil(t, FromTransactions(nil))
	assert.Empty(t, FromVolumes(nil))
	assert.NotNil(t, FromOffers(nil))
}
