package camera

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// History field values: which side of the state document changed.
const (
	HistoryFieldTarget = "target"
	HistoryFieldActual = "actual"
)

// History source values: who caused the change.
const (
	HistorySourceDashboard = "dashboard"
	HistorySourceDevice    = "device"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryEntry is a single accepted state write.
type HistoryEntry struct {
	ID          int64  `json:"id"`
	Field       string `json:"field"`
	Value       State  `json:"value"`
	Source      string `json:"source"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// HistoryRepository appends and reads the audit trail of accepted writes.
//
// History is bookkeeping only: it plays no part in conflict detection and
// a failed append must not fail the write it describes.
type HistoryRepository interface {
	// Record appends one entry.
	Record(ctx context.Context, field string, value State, source string) error

	// Recent returns entries newest-first. limit <= 0 uses the default;
	// oversized limits are clamped.
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// SQLiteHistoryRepository implements HistoryRepository on the
// state_history table.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a SQLite-backed history repository.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// Record appends one entry to state_history.
func (r *SQLiteHistoryRepository) Record(ctx context.Context, field string, value State, source string) error {
	if !value.Valid() {
		return ErrInvalidState
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO state_history (field, value, source, created_at_ms) VALUES (?, ?, ?, ?)",
		field, string(value), source, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}
	return nil
}

// Recent returns history entries ordered newest first.
func (r *SQLiteHistoryRepository) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, field, value, source, created_at_ms
		 FROM state_history
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var entry HistoryEntry
		var value string
		if err := rows.Scan(&entry.ID, &entry.Field, &value, &entry.Source, &entry.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		entry.Value = State(value)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}

	return entries, nil
}

// MemoryHistoryRepository keeps recent entries in a bounded in-process slice.
// Used when the state store itself is memory-backed.
type MemoryHistoryRepository struct {
	mu      sync.Mutex
	entries []HistoryEntry
	nextID  int64
}

// NewMemoryHistoryRepository creates an empty memory-backed history.
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{nextID: 1}
}

// Record appends one entry, evicting the oldest past the cap.
func (r *MemoryHistoryRepository) Record(_ context.Context, field string, value State, source string) error {
	if !value.Valid() {
		return ErrInvalidState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, HistoryEntry{
		ID:          r.nextID,
		Field:       field,
		Value:       value,
		Source:      source,
		CreatedAtMs: time.Now().UnixMilli(),
	})
	r.nextID++

	if len(r.entries) > maxHistoryLimit {
		r.entries = r.entries[len(r.entries)-maxHistoryLimit:]
	}
	return nil
}

// Recent returns entries newest-first.
func (r *MemoryHistoryRepository) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	limit = clampLimit(limit)

	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > len(r.entries) {
		limit = len(r.entries)
	}

	out := make([]HistoryEntry, 0, limit)
	for i := len(r.entries) - 1; i >= len(r.entries)-limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
