package domain

import "time"

// ScanEvent records one resolution attempt of a code, bound or not.
// Events are append-only.
type ScanEvent struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ScannedAt time.Time `json:"scanned_at"`
	UserAgent string    `json:"user_agent"`
}
