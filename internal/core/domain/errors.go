package domain

import "errors"

var (
	// ErrInsufficientBalance is returned by wallet stores when a debit would
	// drive a balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAmountOutOfRange is returned when a write would store an amount or
	// balance above MaxAmount.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrStoreUnavailable marks transient storage failures (connection loss,
	// lock timeouts, serialization conflicts). Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
