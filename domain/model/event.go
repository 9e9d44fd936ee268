package model

import "time"

// Telemetry event kinds recorded into a surface's journal.
const (
	EventContextLost     = "context_lost"
	EventContextRestored = "context_restored"
	EventQualityAdjusted = "quality_adjusted"
	EventLeakSuspected   = "leak_suspected"
	EventPressureWarning = "pressure_warning"
)

// TelemetryEvent is one entry of a surface's telemetry journal.
type TelemetryEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`      // "info", "warning", "error"
	EventType string    `json:"eventType"` // "context_lost", "leak_suspected", ...
	Resource  string    `json:"resource"`  // name of the affected surface or module
	Data      any       `json:"data"`      // additional data (e.g., leak rate)
	Timestamp time.Time `json:"-"`         // for internal use
	UnixTime  int64     `json:"timestamp"` // unix timestamp for the client
}
