// Package database provides SQLite connection management for camcore.
//
// It wraps database/sql with:
//   - Connection setup (WAL mode, busy timeout, foreign keys)
//   - Idempotent schema application on startup
//   - Health checks for monitoring
//   - Restricted file permissions (0600)
//
// SQLite is configured with a single writer connection, which is the
// recommended arrangement for this driver. Readers are not blocked while
// WAL mode is enabled.
package database
