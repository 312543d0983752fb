package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, offer_id, counter_offer_id, from_user_id, from_value, from_currency,
		to_user_id, to_value, to_currency, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8::numeric, $9, $10)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.OfferID, t.CounterOfferID,
		t.FromUserID, t.FromValue.String(), t.FromCurrency,
		t.ToUserID, t.ToValue.String(), t.ToCurrency,
		t.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert transaction", err)
	}
	return nil
}

// List fetches transactions oldest first with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("(from_user_id = $%d OR to_user_id = $%d)", argIdx, argIdx))
		args = append(args, *params.UserID)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count transactions", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, offer_id, counter_offer_id, from_user_id, from_value::text, from_currency,
		to_user_id, to_value::text, to_currency, created_at
		FROM transactions %s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, wrapErr("list transactions", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			t              domain.Transaction
			fromRaw, toRaw string
		)
		err := rows.Scan(
			&t.ID, &t.OfferID, &t.CounterOfferID,
			&t.FromUserID, &fromRaw, &t.FromCurrency,
			&t.ToUserID, &toRaw, &t.ToCurrency,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		if t.FromValue, err = parseAmount(fromRaw); err != nil {
			return nil, 0, err
		}
		if t.ToValue, err = parseAmount(toRaw); err != nil {
			return nil, 0, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("iterate transaction rows", err)
	}
	return txns, total, nil
}

// GetVolumeStats aggregates settled volume per currency pair.
func (r *TransactionRepo) GetVolumeStats(ctx context.Context, since *time.Time) ([]domain.PairVolume, error) {
	var args []any
	where := ""
	if since != nil {
		where = "WHERE created_at >= $1"
		args = append(args, *since)
	}

	query := fmt.Sprintf(`SELECT from_currency, to_currency, COUNT(*),
		COALESCE(SUM(from_value), 0)::text, COALESCE(SUM(to_value), 0)::text
		FROM transactions %s
		GROUP BY from_currency, to_currency
		ORDER BY from_currency, to_currency`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("get volume stats", err)
	}
	defer rows.Close()

	var stats []domain.PairVolume
	for rows.Next() {
		var (
			v              domain.PairVolume
			fromRaw, toRaw string
		)
		if err := rows.Scan(&v.FromCurrency, &v.ToCurrency, &v.Count, &fromRaw, &toRaw); err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		if v.FromVolume, err = parseAmount(fromRaw); err != nil {
			return nil, err
		}
		if v.ToVolume, err = parseAmount(toRaw); err != nil {
			return nil, err
		}
		stats = append(stats, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate volume rows", err)
	}
	return stats, nil
}
