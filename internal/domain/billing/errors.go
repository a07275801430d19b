package billing

import "errors"

var (
	// ErrNotFound is returned for an unknown checkout session (permanent)
	ErrNotFound = errors.New("checkout session not found")

	// ErrForbidden is returned when the session belongs to another user
	// (permanent)
	ErrForbidden = errors.New("purchase belongs to another user")

	// ErrPaymentNotComplete is returned when the provider has not settled
	// the payment yet. Retryable; the purchase stays pending.
	ErrPaymentNotComplete = errors.New("payment not completed")

	// ErrUnknownPackage is returned at checkout for an unknown package id
	ErrUnknownPackage = errors.New("unknown credit package")

	// ErrStorage wraps storage faults. Fatal for the call but safe to
	// retry; the crash-consistency guard prevents partial effects.
	ErrStorage = errors.New("storage failure")
)
