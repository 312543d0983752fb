package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const offerColumns = `id, user_id, from_currency, from_value::text, to_currency, to_value::text, status, created_at, closed_at`

// OfferRepo implements ports.OfferRepository.
type OfferRepo struct {
	pool Pool
}

// NewOfferRepo creates a new OfferRepo.
func NewOfferRepo(pool Pool) *OfferRepo {
	return &OfferRepo{pool: pool}
}

// Create inserts a new offer within a database transaction.
func (r *OfferRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Offer) error {
	query := `INSERT INTO offers (id, user_id, from_currency, from_value, to_currency, to_value, status, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7, $8)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.UserID, o.FromCurrency, o.FromValue.String(),
		o.ToCurrency, o.ToValue.String(), string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert offer", err)
	}
	return nil
}

// GetByID fetches an offer in any status (non-locking read).
func (r *OfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return scanOffer(r.pool.QueryRow(ctx, query, id), "get offer")
}

// GetByIDForUpdate fetches an offer with pessimistic locking.
// This MUST be called within a transaction.
func (r *OfferRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`
	return scanOffer(tx.QueryRow(ctx, query, id), "get offer for update")
}

// ListOpen returns OPEN offers, oldest first.
func (r *OfferRepo) ListOpen(ctx context.Context, params ports.OfferListParams) ([]domain.Offer, error) {
	conditions := []string{"status = 'OPEN'"}
	var args []any
	argIdx := 1

	if params.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *params.UserID)
		argIdx++
	}
	if params.FromCurrency != "" {
		conditions = append(conditions, fmt.Sprintf("from_currency = $%d", argIdx))
		args = append(args, params.FromCurrency)
		argIdx++
	}
	if params.ToCurrency != "" {
		conditions = append(conditions, fmt.Sprintf("to_currency = $%d", argIdx))
		args = append(args, params.ToCurrency)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT %s FROM offers WHERE %s ORDER BY created_at ASC, id ASC`,
		offerColumns, strings.Join(conditions, " AND "))
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list open offers", err)
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows, "scan offer row")
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate offer rows", err)
	}
	return offers, nil
}

// Claim atomically moves an OPEN offer to status. It returns nil when no
// OPEN offer with that id exists.
// This MUST be called within a transaction.
func (r *OfferRepo) Claim(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OfferStatus) (*domain.Offer, error) {
	query := `UPDATE offers SET status = $2, closed_at = NOW()
		WHERE id = $1 AND status = 'OPEN'
		RETURNING ` + offerColumns

	return scanOffer(tx.QueryRow(ctx, query, id, string(status)), "claim offer")
}

// scanOffer scans a single row into an Offer; pgx.ErrNoRows yields nil.
func scanOffer(row pgx.Row, op string) (*domain.Offer, error) {
	var (
		o              domain.Offer
		status         string
		fromRaw, toRaw string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.FromCurrency, &fromRaw,
		&o.ToCurrency, &toRaw, &status, &o.CreatedAt, &o.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	o.Status = domain.OfferStatus(status)
	if o.FromValue, err = parseAmount(fromRaw); err != nil {
		return nil, err
	}
	if o.ToValue, err = parseAmount(toRaw); err != nil {
		return nil, err
	}
	return &o, nil
}
