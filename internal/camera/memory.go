package camera

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is the process-memory state cell.
//
// It starts pre-initialised to off and holds nothing across restarts.
// A mutex serialises access; concurrent writers still race at the
// read-then-write level, which last-write-wins accepts.
type MemoryRepository struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewMemoryRepository creates a memory-backed repository initialised to off.
func NewMemoryRepository() *MemoryRepository {
	now := time.Now().UnixMilli()
	return &MemoryRepository{
		snap: Snapshot{
			Value:             StateOff,
			UpdatedAtMs:       now,
			UpdatedAtReadable: readableTimestamp(now),
		},
	}
}

// Get returns the current state document.
func (r *MemoryRepository) Get(_ context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap, nil
}

// SetTarget overwrites the target value and stamps its update time.
func (r *MemoryRepository) SetTarget(_ context.Context, value State) (Snapshot, error) {
	if !value.Valid() {
		return Snapshot{}, ErrInvalidState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UnixMilli()
	r.snap.Value = value
	r.snap.UpdatedAtMs = now
	r.snap.UpdatedAtReadable = readableTimestamp(now)
	return r.snap, nil
}

// ReportActual overwrites the device-confirmed value, independent of target.
func (r *MemoryRepository) ReportActual(_ context.Context, value State) (Snapshot, error) {
	if !value.Valid() {
		return Snapshot{}, ErrInvalidState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.snap.Actual = value
	r.snap.ReportedAtMs = time.Now().UnixMilli()
	return r.snap, nil
}
