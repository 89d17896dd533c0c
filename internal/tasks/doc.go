// Package tasks runs long-lived and bulk operations over the checklist store.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes every checklist (optionally limited to a set of owners) to disk in one
// of the [formatter] formats. Checklists are fetched per owner behind a [rate.Limiter] and written by a
// pool of workers. A manifest summarizing each file is written alongside the exports.
//
// # Session Sweeping
//
// [SessionSweeper] periodically deletes expired sessions while the server runs.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block: a full
// channel drops the update.
package tasks
