package ledger

import "errors"

var (
	// ErrNotFound is returned when no transaction matches the lookup
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidAmount is returned when an amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidType is returned for unknown transaction types
	ErrInvalidType = errors.New("invalid transaction type")

	// ErrInsufficientCredits is returned when a usage debit would drive the
	// derived balance below zero
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrDuplicatePurchaseTx is returned when a purchase-type row for the
	// same purchase id already exists
	ErrDuplicatePurchaseTx = errors.New("purchase already credited")
)
