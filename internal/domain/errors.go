package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrObligationNotFound is returned when no obligation exists for a burn ID
	ErrObligationNotFound = errors.New("obligation not found")

	// ErrClaimConflict is returned when an obligation could not be claimed because its status changed
	ErrClaimConflict = errors.New("obligation claim conflict")

	// ErrInvalidAmount is returned when a burn amount is missing, malformed or not positive
	ErrInvalidAmount = errors.New("invalid burn amount")

	// ErrInvalidAddress is returned when a depositor address does not match the configured format
	ErrInvalidAddress = errors.New("invalid depositor address")

	// ErrSourceNotFound is returned when the burn store file does not exist
	ErrSourceNotFound = errors.New("burn store not found")

	// ErrUnknownConversionRule is returned for an unrecognised conversion rule name
	ErrUnknownConversionRule = errors.New("unknown conversion rule")

	// ErrUnknownAddressFormat is returned for an unrecognised address format
	ErrUnknownAddressFormat = errors.New("unknown address format")
)

// TransientError marks a chain failure that may succeed when retried (timeout, rate limit, transport)
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient chain error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// RejectedError marks a chain failure that will not succeed on retry (invalid recipient, program error, revert)
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	if e.Err == nil {
		return "mint rejected: " + e.Reason
	}
	return fmt.Sprintf("mint rejected: %s: %v", e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// StorageError wraps any ledger failure. It is fatal to a run.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError describes why a burn record cannot become a mint obligation
type ValidationError struct {
	BurnID string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a retryable chain error
func NewTransientError(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// NewRejectedError wraps err as a definitive chain rejection
func NewRejectedError(reason string, err error) error {
	return &RejectedError{Reason: reason, Err: err}
}

// NewStorageError wraps err as a fatal ledger error. A nil err stays nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsTransient reports whether err is a retryable chain error
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRejected reports whether err is a definitive chain rejection
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// IsStorage reports whether err originated in the ledger
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
