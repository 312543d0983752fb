package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"
	"currency-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// seedScale is the precision of seeded opening balances.
const seedScale = 2

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	currencies []string
	seedMin    decimal.Decimal
	seedMax    decimal.Decimal
	randFloat  func() float64
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. New wallets receive one
// row per currency, each seeded uniformly from [seedMin, seedMax].
func NewWalletService(
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	currencies []string,
	seedMin, seedMax decimal.Decimal,
	log zerolog.Logger,
) *WalletServiceImpl {
	if len(currencies) == 0 {
		currencies = domain.DefaultCurrencies
	}
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		transactor: transactor,
		currencies: currencies,
		seedMin:    seedMin,
		seedMax:    seedMax,
		randFloat:  rand.Float64,
		log:        log,
	}
}

// OpenWallet creates the user's currency rows if they do not exist yet. The
// returned flag is true when at least one row was created.
func (s *WalletServiceImpl) OpenWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, bool, error) {
	seeds := make(map[string]decimal.Decimal, len(s.currencies))
	for _, c := range s.currencies {
		seeds[c] = s.seedAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, false, storeErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	created, err := s.walletRepo.Open(ctx, dbTx, userID, seeds)
	if err != nil {
		return nil, false, storeErr("open wallet", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, false, storeErr("commit tx", err)
	}

	wallet, err := s.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	if created > 0 {
		s.log.Info().
			Str("user_id", userID.String()).
			Int("currencies", created).
			Msg("wallet opened")
	}
	return wallet, created > 0, nil
}

// Topup credits the caller's wallet. It is the ledger's only source of new
// funds besides wallet seeding.
func (s *WalletServiceImpl) Topup(ctx context.Context, req ports.TopupRequest) (*domain.Wallet, error) {
	if !domain.IsValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if !s.supportsCurrency(req.Currency) {
		return nil, apperror.Validation(fmt.Sprintf("unsupported currency %q", req.Currency))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	key := domain.BalanceKey{UserID: req.UserID, Currency: req.Currency}
	if err := s.walletRepo.LockBalances(ctx, dbTx, []domain.BalanceKey{key}); err != nil {
		return nil, storeErr("lock balance", err)
	}
	if err := s.walletRepo.Credit(ctx, dbTx, req.UserID, req.Currency, req.Amount); err != nil {
		return nil, storeErr("credit wallet", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeErr("commit tx", err)
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("currency", req.Currency).
		Str("amount", req.Amount.String()).
		Msg("wallet topped up")

	return s.load(ctx, req.UserID)
}

func (s *WalletServiceImpl) load(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	balances, err := s.walletRepo.GetBalances(ctx, userID)
	if err != nil {
		return nil, storeErr("get balances", err)
	}
	if balances == nil {
		balances = []domain.Balance{}
	}
	return &domain.Wallet{UserID: userID, Balances: balances}, nil
}

func (s *WalletServiceImpl) supportsCurrency(code string) bool {
	for _, c := range s.currencies {
		if c == code {
			return true
		}
	}
	return false
}

// seedAmount draws an opening balance from [seedMin, seedMax].
func (s *WalletServiceImpl) seedAmount() decimal.Decimal {
	span := s.seedMax.Sub(s.seedMin)
	if !span.IsPositive() {
		return s.seedMin
	}
	amount := s.seedMin.Add(span.Mul(decimal.NewFromFloat(s.randFloat()))).Round(seedScale)
	if amount.GreaterThan(s.seedMax) {
		return s.seedMax
	}
	return amount
}
