package caterflow_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCapacityExceeded   = errors.New("slot capacity exceeded")
	ErrBookingCancelled   = errors.New("booking is cancelled")
	ErrPaymentExceeds     = errors.New("payment would exceed remaining balance")
	ErrStillProcessing    = errors.New("request is still being processed")
	ErrPreviouslyFailed   = errors.New("command previously failed")
	ErrHandlerNotFound    = errors.New("no handler registered for command")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInternal           = errors.New("command failed, please retry")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
