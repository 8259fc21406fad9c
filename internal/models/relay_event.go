package models

import "time"

// Event types recorded in the relay event log.
const (
	EventRelayOn    = "RELAY_ON"
	EventRelayOff   = "RELAY_OFF"
	EventModeChange = "MODE_CHANGE"
	EventError      = "ERROR"
)

// RelayEvent is a single entry in the append-only event log: a relay
// transition, an operator mode change, or an error worth keeping.
type RelayEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // RELAY_ON | RELAY_OFF | MODE_CHANGE | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
