package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"currency-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. Balances live in NUMERIC
// columns and are exchanged with pgx as text to keep full precision.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// GetBalance returns the balance for one currency, zero if the row is absent.
func (r *WalletRepo) GetBalance(ctx context.Context, userID uuid.UUID, currency string) (decimal.Decimal, error) {
	query := `SELECT balance::text FROM wallets WHERE user_id = $1 AND currency = $2`

	var raw string
	err := r.pool.QueryRow(ctx, query, userID, currency).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, wrapErr("get balance", err)
	}
	return parseAmount(raw)
}

// GetBalances returns every currency row of the user's wallet ordered by currency.
func (r *WalletRepo) GetBalances(ctx context.Context, userID uuid.UUID) ([]domain.Balance, error) {
	query := `SELECT user_id, currency, balance::text, updated_at
		FROM wallets WHERE user_id = $1 ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list balances", err)
	}
	defer rows.Close()

	var balances []domain.Balance
	for rows.Next() {
		var (
			b   domain.Balance
			raw string
		)
		if err := rows.Scan(&b.UserID, &b.Currency, &raw, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		if b.Amount, err = parseAmount(raw); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate balance rows", err)
	}
	return balances, nil
}

// LockBalances takes FOR UPDATE locks on the given rows in canonical order.
// This MUST be called within a transaction.
func (r *WalletRepo) LockBalances(ctx context.Context, tx pgx.Tx, keys []domain.BalanceKey) error {
	query := `SELECT balance::text FROM wallets WHERE user_id = $1 AND currency = $2 FOR UPDATE`

	for _, k := range domain.SortBalanceKeys(keys) {
		var raw string
		err := tx.QueryRow(ctx, query, k.UserID, k.Currency).Scan(&raw)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return wrapErr("lock balance", err)
		}
	}
	return nil
}

// Debit decrements a balance only if enough funds are present.
// This MUST be called within a transaction.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance - $3::numeric, updated_at = NOW()
		WHERE user_id = $1 AND currency = $2 AND balance >= $3::numeric`

	tag, err := tx.Exec(ctx, query, userID, currency, amount.String())
	if err != nil {
		return wrapErr("debit wallet", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Credit increments a balance, creating the row if needed.
// This MUST be called within a transaction.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	query := `INSERT INTO wallets (user_id, currency, balance, updated_at)
		VALUES ($1, $2, $3::numeric, NOW())
		ON CONFLICT (user_id, currency)
		DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()`

	if _, err := tx.Exec(ctx, query, userID, currency, amount.String()); err != nil {
		return wrapErr("credit wallet", err)
	}
	return nil
}

// Open inserts the currency rows the user does not hold yet.
// This MUST be called within a transaction.
func (r *WalletRepo) Open(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balances map[string]decimal.Decimal) (int, error) {
	query := `INSERT INTO wallets (user_id, currency, balance, updated_at)
		VALUES ($1, $2, $3::numeric, NOW())
		ON CONFLICT (user_id, currency) DO NOTHING`

	currencies := make([]string, 0, len(balances))
	for c := range balances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	created := 0
	for _, c := range currencies {
		tag, err := tx.Exec(ctx, query, userID, c, balances[c].String())
		if err != nil {
			return created, wrapErr("open wallet", err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}
