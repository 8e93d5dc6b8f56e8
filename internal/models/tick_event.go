package models

import "time"

// Tick event types.
const (
	EventTickOK      = "TICK_OK"
	EventTickFailed  = "TICK_FAILED"
	EventReauth      = "REAUTH"
	EventSetupFailed = "SETUP_FAILED"
)

// TickEvent is a single entry of the polling history.
type TickEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TICK_OK | TICK_FAILED | REAUTH | SETUP_FAILED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
