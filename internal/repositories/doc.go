// Package repositories implements SQLite persistence for the pool's action history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [HistoryRepository] : one row per dispatched action with account, arguments, result or error, and timing
//
// Sequence numbers provide stable, human-readable ordering (e.g., action #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
