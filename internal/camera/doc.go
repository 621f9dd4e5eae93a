// Package camera holds the authoritative state of the single controlled
// device: the camera on/off cell.
//
// The state document follows the target/actual split: Value is the desired
// command written by the dashboard, Actual is the last state the device
// itself confirmed. Each side carries its own timestamp.
//
// Two Repository implementations exist: a memory-backed cell for ephemeral
// deployments and tests, and a SQLite-backed single-row table that survives
// restarts. Both accept exactly the two enumerated states and reject
// everything else without touching the stored value.
//
// Concurrency is last-write-wins. There is no compare-and-swap, no version
// token, and no history-based conflict detection; pollers are expected to
// tolerate state that changed since their last read.
package camera
