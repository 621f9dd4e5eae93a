package camera

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// stateRowID is the fixed primary key of the single camera_state row.
const stateRowID = 1

// SQLiteRepository implements Repository on the camera_state table.
//
// The table holds exactly one row; every operation is a single-row read or
// single-row write, with no transaction spanning multiple statements beyond
// what each call itself needs.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed repository.
//
// The camera_state table must exist (database.Migrate applies it).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the current state document.
//
// The first call on an empty table initialises the row to off and returns
// that initialised snapshot.
func (r *SQLiteRepository) Get(ctx context.Context) (Snapshot, error) {
	snap, err := r.read(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}
	return r.initialise(ctx)
}

// SetTarget overwrites the target value and stamps its update time.
// The actual side of the row is left untouched.
func (r *SQLiteRepository) SetTarget(ctx context.Context, value State) (Snapshot, error) {
	if !value.Valid() {
		return Snapshot{}, ErrInvalidState
	}

	now := time.Now().UnixMilli()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO camera_state (id, value, updated_at_ms, updated_at_readable)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			value = excluded.value,
			updated_at_ms = excluded.updated_at_ms,
			updated_at_readable = excluded.updated_at_readable`,
		stateRowID, string(value), now, readableTimestamp(now),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("writing camera state: %w", err)
	}

	return r.read(ctx)
}

// ReportActual overwrites the device-confirmed value and its reported-at
// time, independent of the target side.
func (r *SQLiteRepository) ReportActual(ctx context.Context, value State) (Snapshot, error) {
	if !value.Valid() {
		return Snapshot{}, ErrInvalidState
	}

	// Make sure the row exists so the UPDATE below has something to hit.
	if _, err := r.Get(ctx); err != nil {
		return Snapshot{}, err
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE camera_state SET actual = ?, reported_at_ms = ? WHERE id = ?",
		string(value), time.Now().UnixMilli(), stateRowID,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("writing reported state: %w", err)
	}

	return r.read(ctx)
}

// read scans the single state row. Returns sql.ErrNoRows when the table is
// empty (first access).
func (r *SQLiteRepository) read(ctx context.Context) (Snapshot, error) {
	var (
		snap       Snapshot
		value      string
		actual     sql.NullString
		reportedAt sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT value, updated_at_ms, updated_at_readable, actual, reported_at_ms
		 FROM camera_state WHERE id = ?`,
		stateRowID,
	).Scan(&value, &snap.UpdatedAtMs, &snap.UpdatedAtReadable, &actual, &reportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading camera state: %w", err)
	}

	snap.Value = State(value)
	if actual.Valid {
		snap.Actual = State(actual.String)
	}
	if reportedAt.Valid {
		snap.ReportedAtMs = reportedAt.Int64
	}
	return snap, nil
}

// initialise writes the default off row and returns it.
//
// ON CONFLICT DO NOTHING covers the race where two first reads initialise
// concurrently: the loser re-reads whatever the winner wrote.
func (r *SQLiteRepository) initialise(ctx context.Context) (Snapshot, error) {
	now := time.Now().UnixMilli()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO camera_state (id, value, updated_at_ms, updated_at_readable)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		stateRowID, string(StateOff), now, readableTimestamp(now),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("initialising camera state: %w", err)
	}
	return r.read(ctx)
}
