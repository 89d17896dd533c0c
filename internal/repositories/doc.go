// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [UserRepository] : account persistence with exact email lookups
//   - [SessionRepository] : server-side sessions keyed by token hash
//   - [ChecklistRepository] : owner-scoped checklists with their items
//   - [ItemRepository] : checklist items, scoped through the parent checklist's owner
//
// Checklist and item writes carry the owner's user ID in the statement itself, so a row that
// belongs to someone else is indistinguishable from a missing one and surfaces as [shared.ErrNotFound].
//
// Sequence numbers provide stable, human-readable ordering independent of IDs and creation timestamps.
// The [NextSequence] function increments per-table sequence counters in dedicated sequence tables
// inside the caller's transaction.
package repositories
