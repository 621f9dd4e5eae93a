package camera

import "context"

// Repository stores and retrieves the camera state document.
//
// Implementations must be safe for concurrent use. Writes are
// last-write-wins; there is no conflict detection across callers.
type Repository interface {
	// Get returns the current state document.
	//
	// On a store with no prior writes, Get initialises the document to
	// off and returns that initialised snapshot (persistent variant) or
	// returns the pre-initialised off cell (memory variant).
	Get(ctx context.Context) (Snapshot, error)

	// SetTarget overwrites the target value and stamps its update time.
	//
	// Returns ErrInvalidState and leaves the store untouched when value
	// is not one of the two enumerated states. The actual side of the
	// document is not modified.
	SetTarget(ctx context.Context, value State) (Snapshot, error)

	// ReportActual overwrites the device-confirmed value and stamps its
	// own reported-at time, independent of the target side.
	//
	// Validation matches SetTarget.
	ReportActual(ctx context.Context, value State) (Snapshot, error)
}
