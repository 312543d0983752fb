package service

import (
	"context"
	"errors"
	"fmt"

	"currency-exchange/internal/core/domain"
	"currency-exchange/pkg/apperror"
)

// storeErr translates a repository error into an AppError. Transient
// failures and expired deadlines become the retryable StoreUnavailable kind.
func storeErr(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return apperror.ErrInsufficientFunds()
	case errors.Is(err, domain.ErrAmountOutOfRange):
		return apperror.ErrInvalidAmount()
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperror.ErrStoreUnavailable(fmt.Errorf("%s: %w", op, err))
	default:
		return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
	}
}

// checkOpen maps a locked offer to the error for its current state, nil
// when it is still OPEN.
func checkOpen(offer *domain.Offer) error {
	switch {
	case offer == nil:
		return apperror.ErrOfferNotFound()
	case offer.Status == domain.OfferStatusSettled:
		return apperror.ErrOfferAlreadySettled()
	case offer.Status == domain.OfferStatusCancelled:
		return apperror.ErrOfferAlreadyCancelled()
	}
	return nil
}

// outcome labels an operation result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperror.CodeOf(err); code != "" {
		return code
	}
	return "error"
}
