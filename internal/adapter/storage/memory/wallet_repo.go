package memory

import (
	"context"
	"sort"

	"currency-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository on a Store.
type WalletRepo struct {
	store *Store
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(store *Store) *WalletRepo {
	return &WalletRepo{store: store}
}

// GetBalance returns the balance for one currency, zero if the row is absent.
func (r *WalletRepo) GetBalance(ctx context.Context, userID uuid.UUID, currency string) (decimal.Decimal, error) {
	amount := decimal.Zero
	err := r.store.view(ctx, func() {
		if b, ok := r.store.balances[domain.BalanceKey{UserID: userID, Currency: currency}]; ok {
			amount = b.Amount
		}
	})
	return amount, err
}

// GetBalances returns every currency row of the user's wallet ordered by currency.
func (r *WalletRepo) GetBalances(ctx context.Context, userID uuid.UUID) ([]domain.Balance, error) {
	var balances []domain.Balance
	err := r.store.view(ctx, func() {
		for k, b := range r.store.balances {
			if k.UserID == userID {
				balances = append(balances, *b)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Currency < balances[j].Currency })
	return balances, nil
}

// LockBalances only validates the transaction: a unit of work already holds
// the whole store.
func (r *WalletRepo) LockBalances(ctx context.Context, tx pgx.Tx, _ []domain.BalanceKey) error {
	_, err := r.store.txFrom(ctx, tx)
	return err
}

// Debit decrements a balance only if enough funds are present.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return err
	}
	b, ok := r.store.balances[domain.BalanceKey{UserID: userID, Currency: currency}]
	if !ok || b.Amount.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	prev := *b
	b.Amount = b.Amount.Sub(amount)
	b.UpdatedAt = r.store.now()
	t.onRollback(func() { *b = prev })
	return nil
}

// Credit increments a balance, creating the row if needed.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return err
	}
	key := domain.BalanceKey{UserID: userID, Currency: currency}
	b, ok := r.store.balances[key]
	total := amount
	if ok {
		total = b.Amount.Add(amount)
	}
	if total.GreaterThan(domain.MaxAmount) {
		return domain.ErrAmountOutOfRange
	}
	if !ok {
		r.store.balances[key] = &domain.Balance{
			UserID:    userID,
			Currency:  currency,
			Amount:    amount,
			UpdatedAt: r.store.now(),
		}
		t.onRollback(func() { delete(r.store.balances, key) })
		return nil
	}
	prev := *b
	b.Amount = b.Amount.Add(amount)
	b.UpdatedAt = r.store.now()
	t.onRollback(func() { *b = prev })
	return nil
}

// Open inserts the currency rows the user does not hold yet.
func (r *WalletRepo) Open(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balances map[string]decimal.Decimal) (int, error) {
	t, err := r.store.txFrom(ctx, tx)
	if err != nil {
		return 0, err
	}
	created := 0
	for currency, amount := range balances {
		key := domain.BalanceKey{UserID: userID, Currency: currency}
		if _, ok := r.store.balances[key]; ok {
			continue
		}
		r.store.balances[key] = &domain.Balance{
			UserID:    userID,
			Currency:  currency,
			Amount:    amount,
			UpdatedAt: r.store.now(),
		}
		t.onRollback(func() { delete(r.store.balances, key) })
		created++
	}
	return created, nil
}
