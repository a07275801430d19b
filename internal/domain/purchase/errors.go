package purchase

import "errors"

var (
	// ErrNotFound is returned when no purchase matches the lookup
	ErrNotFound = errors.New("purchase not found")

	// ErrDuplicateID is returned when a purchase id is reused
	ErrDuplicateID = errors.New("purchase id already exists")

	// ErrDuplicateSession is returned when an external session id is reused
	ErrDuplicateSession = errors.New("external session already tracked")

	// ErrAlreadyPaid signals the conditional transition found a non-pending
	// row. Callers treat it as "already applied", not as a failure.
	ErrAlreadyPaid = errors.New("purchase already paid")
)
