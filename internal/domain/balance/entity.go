package balance

import "time"

// Summary aggregates a user's ledger activity. All figures are derived
// from the transaction rows at read time; nothing here is stored.
type Summary struct {
	Balance       int            `json:"balance" db:"balance"`
	TotalCredited int            `json:"total_credited" db:"total_credited"`
	TotalConsumed int            `json:"total_consumed" db:"total_consumed"`
	CountsByType  map[string]int `json:"counts_by_type"`
	Since         *time.Time     `json:"since,omitempty"`
}
