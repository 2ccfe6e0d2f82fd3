package models

import "time"

// CycleResult summarizes a single reconciliation cycle
type CycleResult struct {
	ID          string    `json:"id"`
	CheckedAt   time.Time `json:"checked_at"`
	Fetched     int       `json:"fetched"`
	New         int       `json:"new"`
	Skipped     bool      `json:"skipped,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Notified    bool      `json:"notified,omitempty"`
	NotifyError string    `json:"notify_error,omitempty"`
}
