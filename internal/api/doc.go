// Package api implements the JSON resource API over checklists, items and sessions.
//
// Every checklist and item route requires an authenticated session, taken from the session cookie
// or an "Authorization: Bearer" header. Handlers pass the caller's user ID down to the stores, which
// scope each statement by owner. Another user's checklist is therefore reported exactly like a missing one.
//
// Errors are rendered as {"error": message, "code": code} with the status chosen by [StatusFor].
package api
