package memory

import (
	"context"
	"testing"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openWallet(t *testing.T, s *Store, userID uuid.UUID, balances map[string]decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = NewWalletRepo(s).Open(ctx, tx, userID, balances)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func TestWalletRepo_DebitCredit_Commit(t *testing.T) {
	s := NewStore()
	repo := NewWalletRepo(s)
	ctx := context.Background()
	user := uuid.New()
	openWallet(t, s, user, map[string]decimal.Decimal{"USD": dec("100")})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Debit(ctx, tx, user, "USD", dec("40.5")))
	require.NoError(t, repo.Credit(ctx, tx, user, "EUR", dec("12")))
	require.NoError(t, tx.Commit(ctx))

	usd, err := repo.GetBalance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, usd.Equal(dec("59.5")))

	balances, err := repo.GetBalances(ctx, user)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "EUR", balances[0].Currency)
	assert.Equal(t, "USD", balances[1].Currency)
}

func TestWalletRepo_Credit_AboveMaxAmount(t *testing.T) {
	s := NewStore()
	repo := NewWalletRepo(s)
	ctx := context.Background()
	user := uuid.New()
	openWallet(t, s, user, map[string]decimal.Decimal{"USD": domain.MaxAmount})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	err = repo.Credit(ctx, tx, user, "USD", dec("0.00000001"))
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	require.NoError(t, tx.Rollback(ctx))

	usd, err := repo.GetBalance(ctx, user, "USD")
	require.NoError(t, err)
	assert.True(t, usd.Equal(domain.MaxAmount))
}

func TestWalletRepo_Debit_Insufficient(t *testing.T) {
	s := NewStore()
	repo := NewWalletRepo(s)
	ctx := context.Background()
	user := uuid.New()
	openWallet(t, s, user, map[string]decimal.Decimal{"USD": dec("10")})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) //nolint:errcheck

	err = repo.Debit(ctx, tx, user, "USD", dec("10.00000001"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	err = repo.Debit(ctx, tx, user, "JPY", dec("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestTx_RollbackRevertsEverything(t *testing.T) {
	s := NewStore()
	wallets := NewWalletRepo(s)
	offers := NewOfferRepo(s)
	txns := NewTransactionRepo(s)
	keys := NewIdempotencyRepo(s)
	ctx := context.Background()
	user := uuid.New()
	openWallet(t, s, user, map[string]decimal.Decimal{"USD": dec("100")})

	offer := &domain.Offer{
		ID: uuid.New(), UserID: user,
		FromCurrency: "USD", FromValue: dec("50"),
		ToCurrency: "EUR", ToValue: dec("40"),
		Status: domain.OfferStatusOpen, CreatedAt: time.Now().UTC(),
	}

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, wallets.Debit(ctx, tx, user, "USD", dec("50")))
	require.NoError(t, wallets.Credit(ctx, tx, user, "GBP", dec("5")))
	_, err = wallets.Open(ctx, tx, user, map[string]decimal.Decimal{"CHF": decimal.Zero})
	require.NoError(t, err)
	require.NoError(t, offers.Create(ctx, tx, offer))
	claimed, err := offers.Claim(ctx, tx, offer.ID, domain.OfferStatusSettled)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.NoError(t, txns.Create(ctx, tx, &domain.Transaction{ID: uuid.New(), OfferID: offer.ID}))
	require.NoError(t, keys.Create(ctx, tx, &domain.IdempotencyLog{Key: "k"}))
	require.NoError(t, tx.Rollback(ctx))

	balances, err := wallets.GetBalances(ctx, user)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Amount.Equal(dec("100")))

	got, err := offers.GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, total, err := txns.List(ctx, ports.TransactionListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	log, err := keys.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, log)
}

func TestTx_CommitThenRollbackIsClosed(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.ErrorIs(t, tx.Rollback(ctx), pgx.ErrTxClosed)

	// The store must be free again.
	tx2, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(ctx))
}

func TestTx_ClosedTxRejected(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	err = NewWalletRepo(s).Credit(ctx, tx, uuid.New(), "USD", dec("1"))
	assert.ErrorIs(t, err, pgx.ErrTxClosed)
}

func TestTx_ForeignTxRejected(t *testing.T) {
	a, b := NewStore(), NewStore()
	ctx := context.Background()

	tx, err := a.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) //nolint:errcheck

	err = NewWalletRepo(b).Credit(ctx, tx, uuid.New(), "USD", dec("1"))
	assert.Error(t, err)
}

func TestTx_SQLMethodsReportUnsupported(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, errNoSQL)
	assert.ErrorIs(t, tx.QueryRow(ctx, "SELECT 1").Scan(), errNoSQL)

	br := tx.SendBatch(ctx, &pgx.Batch{})
	require.NotNil(t, br)
	_, err = br.Exec()
	assert.ErrorIs(t, err, errNoSQL)
	_, err = br.Query()
	assert.ErrorIs(t, err, errNoSQL)
	assert.ErrorIs(t, br.QueryRow().Scan(), errNoSQL)
	assert.ErrorIs(t, br.Close(), errNoSQL)
}

func TestStore_BeginTimesOutWhileBusy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx) //nolint:errcheck

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = s.Begin(short)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = NewWalletRepo(s).GetBalance(short, uuid.New(), "USD")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestOfferRepo_ClaimOnlyOnce(t *testing.T) {
	s := NewStore()
	offers := NewOfferRepo(s)
	ctx := context.Background()
	offer := &domain.Offer{ID: uuid.New(), UserID: uuid.New(), Status: domain.OfferStatusOpen, CreatedAt: time.Now().UTC()}

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, offers.Create(ctx, tx, offer))
	first, err := offers.Claim(ctx, tx, offer.ID, domain.OfferStatusCancelled)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, domain.OfferStatusCancelled, first.Status)
	assert.NotNil(t, first.ClosedAt)

	second, err := offers.Claim(ctx, tx, offer.ID, domain.OfferStatusSettled)
	require.NoError(t, err)
	assert.Nil(t, second)

	missing, err := offers.Claim(ctx, tx, uuid.New(), domain.OfferStatusSettled)
	require.NoError(t, err)
	assert.Nil(t, missing)
	require.NoError(t, tx.Commit(ctx))
}

func TestOfferRepo_ListOpen_OrderAndFilters(t *testing.T) {
	s := NewStore()
	offers := NewOfferRepo(s)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := []*domain.Offer{
		{ID: uuid.New(), UserID: alice, FromCurrency: "USD", ToCurrency: "EUR", Status: domain.OfferStatusOpen, CreatedAt: base.Add(2 * time.Second)},
		{ID: uuid.New(), UserID: bob, FromCurrency: "EUR", ToCurrency: "USD", Status: domain.OfferStatusOpen, CreatedAt: base},
		{ID: uuid.New(), UserID: alice, FromCurrency: "USD", ToCurrency: "GBP", Status: domain.OfferStatusOpen, CreatedAt: base.Add(time.Second)},
		{ID: uuid.New(), UserID: bob, FromCurrency: "USD", ToCurrency: "EUR", Status: domain.OfferStatusSettled, CreatedAt: base},
	}
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	for _, o := range rows {
		require.NoError(t, offers.Create(ctx, tx, o))
	}
	require.NoError(t, tx.Commit(ctx))

	all, err := offers.ListOpen(ctx, ports.OfferListParams{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, rows[1].ID, all[0].ID)
	assert.Equal(t, rows[2].ID, all[1].ID)
	assert.Equal(t, rows[0].ID, all[2].ID)

	mine, err := offers.ListOpen(ctx, ports.OfferListParams{UserID: &alice, ToCurrency: "EUR"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, rows[0].ID, mine[0].ID)

	page, err := offers.ListOpen(ctx, ports.OfferListParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, rows[2].ID, page[0].ID)
}

func TestTransactionRepo_ListAndStats(t *testing.T) {
	s := NewStore()
	txns := NewTransactionRepo(s)
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	for i, pair := range [][2]uuid.UUID{{alice, bob}, {bob, carol}, {carol, alice}} {
		require.NoError(t, txns.Create(ctx, tx, &domain.Transaction{
			ID: uuid.New(), OfferID: uuid.New(),
			FromUserID: pair[0], FromValue: dec("10"), FromCurrency: "USD",
			ToUserID: pair[1], ToValue: dec("8"), ToCurrency: "EUR",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, tx.Commit(ctx))

	list, total, err := txns.List(ctx, ports.TransactionListParams{UserID: &alice, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.Before(list[1].CreatedAt))

	page2, total, err := txns.List(ctx, ports.TransactionListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page2, 1)

	since := base.Add(30 * time.Minute)
	stats, err := txns.GetVolumeStats(ctx, &since)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Count)
	assert.True(t, stats[0].FromVolume.Equal(dec("20")))
	assert.True(t, stats[0].ToVolume.Equal(dec("16")))
}

func TestAuditRepo_CreateAndList(t *testing.T) {
	s := NewStore()
	repo := NewAuditRepo(s)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.AuditLog{ID: uuid.New(), Action: domain.AuditActionWalletOpen}))
	require.NoError(t, repo.Create(ctx, &domain.AuditLog{ID: uuid.New(), Action: domain.AuditActionOfferCreate}))

	logs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AuditActionOfferCreate, logs[1].Action)
}

func TestStore_Ping(t *testing.T) {
	s := NewStore()
	assert.Equal(t, "memory", s.Name())
	assert.NoError(t, s.Ping(context.Background()))
}
