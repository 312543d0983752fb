package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Matcher pairs compatible OPEN offers and settles each pair by exchanging
// the two reservations. It implements ports.OfferMatcher.
type Matcher struct {
	offerRepo  ports.OfferRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	batchSize  int
	hooks
	log zerolog.Logger
}

// NewMatcher creates a new Matcher scanning at most batchSize open offers per pass.
func NewMatcher(
	offerRepo ports.OfferRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	batchSize int,
	log zerolog.Logger,
	opts ...Option,
) *Matcher {
	if batchSize <= 0 {
		batchSize = maxListLimit
	}
	return &Matcher{
		offerRepo:  offerRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		batchSize:  batchSize,
		hooks:      newHooks(opts),
		log:        log,
	}
}

// Run calls RunOnce every interval until ctx is done.
func (m *Matcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", interval).Int("batch_size", m.batchSize).Msg("matcher started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("matcher stopped")
			return nil
		case <-ticker.C:
			n, err := m.RunOnce(ctx)
			if err != nil {
				m.log.Error().Err(err).Int("matched", n).Msg("matching pass failed")
				continue
			}
			if n > 0 {
				m.log.Info().Int("matched", n).Msg("matching pass complete")
			}
		}
	}
}

// RunOnce scans the oldest open offers and settles every compatible pair it
// finds. Each offer takes part in at most one pair per pass; older offers
// are served first. It returns the number of settled pairs.
func (m *Matcher) RunOnce(ctx context.Context) (matched int, err error) {
	start := time.Now()
	defer func() { m.metrics.ObserveOperation(opMatch, outcome(err), time.Since(start)) }()

	open, err := m.offerRepo.ListOpen(ctx, ports.OfferListParams{Limit: m.batchSize})
	if err != nil {
		return 0, storeErr("list open offers", err)
	}

	used := make(map[uuid.UUID]bool, len(open))
	for i := range open {
		a := &open[i]
		if used[a.ID] {
			continue
		}
		for j := i + 1; j < len(open); j++ {
			b := &open[j]
			if used[b.ID] || !a.Matches(b) {
				continue
			}
			ok, err := m.settlePair(ctx, a.ID, b.ID)
			if err != nil {
				if ctx.Err() != nil {
					return matched, storeErr("settle pair", ctx.Err())
				}
				m.log.Warn().Err(err).
					Str("offer_id", a.ID.String()).
					Str("counter_offer_id", b.ID.String()).
					Msg("failed to settle matched pair")
				continue
			}
			if ok {
				used[a.ID], used[b.ID] = true, true
				matched++
				break
			}
		}
	}
	return matched, nil
}

// settlePair exchanges the reservations of older offer aID and newer offer
// bID. It reports false without changes if either offer is no longer open
// or the pair no longer matches.
func (m *Matcher) settlePair(ctx context.Context, aID, bID uuid.UUID) (bool, error) {
	dbTx, err := m.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Offer rows are locked in id order so two passes never deadlock.
	order := []uuid.UUID{aID, bID}
	if bytes.Compare(aID[:], bID[:]) > 0 {
		order[0], order[1] = bID, aID
	}
	locked := make(map[uuid.UUID]*domain.Offer, 2)
	for _, id := range order {
		o, err := m.offerRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return false, fmt.Errorf("lock offer %s: %w", id, err)
		}
		locked[id] = o
	}

	a, b := locked[aID], locked[bID]
	if a == nil || b == nil || !a.IsOpen() || !b.IsOpen() || !a.Matches(b) {
		return false, nil
	}

	keys := []domain.BalanceKey{
		{UserID: a.UserID, Currency: b.FromCurrency},
		{UserID: b.UserID, Currency: a.FromCurrency},
	}
	if err := m.walletRepo.LockBalances(ctx, dbTx, keys); err != nil {
		return false, fmt.Errorf("lock balances: %w", err)
	}

	for _, id := range order {
		claimed, err := m.offerRepo.Claim(ctx, dbTx, id, domain.OfferStatusSettled)
		if err != nil {
			return false, fmt.Errorf("claim offer %s: %w", id, err)
		}
		if claimed == nil {
			return false, nil
		}
	}

	if err := m.walletRepo.Credit(ctx, dbTx, a.UserID, b.FromCurrency, b.FromValue); err != nil {
		return false, fmt.Errorf("credit %s: %w", a.UserID, err)
	}
	if err := m.walletRepo.Credit(ctx, dbTx, b.UserID, a.FromCurrency, a.FromValue); err != nil {
		return false, fmt.Errorf("credit %s: %w", b.UserID, err)
	}

	txn := &domain.Transaction{
		ID:             uuid.New(),
		OfferID:        a.ID,
		CounterOfferID: &b.ID,
		FromUserID:     a.UserID,
		FromValue:      a.FromValue,
		FromCurrency:   a.FromCurrency,
		ToUserID:       b.UserID,
		ToValue:        b.FromValue,
		ToCurrency:     b.FromCurrency,
		CreatedAt:      time.Now().UTC(),
	}
	if err := m.txRepo.Create(ctx, dbTx, txn); err != nil {
		return false, fmt.Errorf("create transaction: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}

	m.metrics.ObserveSettlement(a.FromCurrency, b.FromCurrency)
	publishEvent(ctx, m.publisher, m.log, domain.NewOfferEvent(domain.EventOffersMatched, a, &b.UserID))

	m.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("offer_id", a.ID.String()).
		Str("counter_offer_id", b.ID.String()).
		Msg("offers matched")

	return true, nil
}
