// Package models defines the domain entities of the checklists service.
//
// Persistent entities:
//   - [User] : account with a unique email and a password hash that is never serialized
//   - [Checklist] : titled list owned by exactly one user, carrying its [Item] values
//   - [Item] : a line of a checklist with a completed flag
//   - [Session] : server-side record of an issued session token (only its hash is stored)
//
// [ItemPatch] and [UserIdentity] are request/response shapes shared between the
// repositories, the authenticator and the HTTP layer.
//
// JSON field names follow the public API (camelCase, createdAt as an ISO-8601 string).
package models
