package camera

import (
	"fmt"
	"time"
)

// State is the camera's on/off value. Exactly two symbols are valid;
// anything else is rejected by ParseState, never coerced.
type State string

const (
	// StateOn means the camera should be (or is) active.
	StateOn State = "on"

	// StateOff means the camera should be (or is) inactive.
	StateOff State = "off"
)

// ParseState validates a raw string as a State.
func ParseState(raw string) (State, error) {
	switch State(raw) {
	case StateOn, StateOff:
		return State(raw), nil
	default:
		return "", fmt.Errorf("%w: %q (use \"on\" or \"off\")", ErrInvalidState, raw)
	}
}

// Valid reports whether the state is one of the two enumerated symbols.
func (s State) Valid() bool {
	return s == StateOn || s == StateOff
}

// Snapshot is the full state document.
//
// Value/UpdatedAtMs is the target side (last dashboard command);
// Actual/ReportedAtMs is what the device last confirmed. Actual is empty
// until the device reports for the first time.
//
// UpdatedAtReadable duplicates UpdatedAtMs in a human-readable form
// (DD-MM-YYYY_HH-MM-SS_unixms) for compatibility with documents written by
// earlier revisions of the state schema.
type Snapshot struct {
	Value             State  `json:"value"`
	UpdatedAtMs       int64  `json:"updatedAtMs"`
	UpdatedAtReadable string `json:"updatedAtReadable"`
	Actual            State  `json:"actual,omitempty"`
	ReportedAtMs      int64  `json:"reportedAtMs,omitempty"`
}

// readableTimestamp formats a Unix-millisecond instant as
// DD-MM-YYYY_HH-MM-SS_unixms, e.g. 11-11-2025_20-17-53_1731353873000.
func readableTimestamp(unixMs int64) string {
	t := time.UnixMilli(unixMs)
	return fmt.Sprintf("%02d-%02d-%04d_%02d-%02d-%02d_%d",
		t.Day(), int(t.Month()), t.Year(),
		t.Hour(), t.Minute(), t.Second(),
		unixMs,
	)
}
