package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"currency-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// wrapErr annotates err with op and tags transient failures with
// domain.ErrStoreUnavailable and numeric overflow with domain.ErrAmountOutOfRange.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22003" { // numeric_value_out_of_range
		return fmt.Errorf("%s: %w: %w", op, domain.ErrAmountOutOfRange, err)
	}
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57014", // query_canceled (statement/lock timeout)
			"57P01", // admin_shutdown
			"53300": // too_many_connections
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08") // connection exceptions
	}

	return pgconn.SafeToRetry(err)
}
