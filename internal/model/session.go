package model

import "time"

// ClosePolicy is the rule applied to leftover items when a session closes.
type ClosePolicy string

const (
	PolicyKeepOpen        ClosePolicy = "keep_open"
	PolicySnoozeLeftovers ClosePolicy = "snooze_leftovers"
	PolicyRemoveLeftovers ClosePolicy = "remove_leftovers"
)

// ParseClosePolicy validates a policy string from the API.
func ParseClosePolicy(s string) (ClosePolicy, bool) {
	switch ClosePolicy(s) {
	case PolicyKeepOpen, PolicySnoozeLeftovers, PolicyRemoveLeftovers:
		return ClosePolicy(s), true
	}
	return "", false
}

// SessionItemState tracks a snapshot item within a session. Exported items
// move to Checked (explicit check) or Leftover (close reconciliation), never
// both and never back.
type SessionItemState string

const (
	SessionItemExported SessionItemState = "exported"
	SessionItemChecked  SessionItemState = "checked"
	SessionItemLeftover SessionItemState = "leftover"
)

// ShoppingSession is one shopping trip. Active while ClosedAt is nil;
// Closed is terminal. ClosePolicy is recorded only once closed.
type ShoppingSession struct {
	ID          string       `json:"id"`
	Store       *Store       `json:"store"`
	StartedAt   time.Time    `json:"started_at"`
	ClosedAt    *time.Time   `json:"closed_at"`
	ClosePolicy *ClosePolicy `json:"close_policy"`
}

// Closed reports whether the session has been closed.
func (s *ShoppingSession) Closed() bool {
	return s.ClosedAt != nil
}

// SessionItem is the frozen snapshot of a catalog item taken at session
// start. QtyAtExport and UnitAtExport never change after creation.
type SessionItem struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"session_id"`
	ItemID       string           `json:"item_id"`
	QtyAtExport  float64          `json:"qty_at_export"`
	UnitAtExport *string          `json:"unit_at_export"`
	CheckedAt    *time.Time       `json:"checked_at"`
	State        SessionItemState `json:"state"`
}
