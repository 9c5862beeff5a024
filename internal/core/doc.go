// Package core holds the join workflow behind the web UI and the CLI.
//
// A [Service] owns in-memory sessions. Each session walks the same steps a
// user does on screen:
//
//  1. Load a primary and a secondary file ([Service.LoadFile]).
//  2. Pick key columns on both sides ([Service.ToggleColumn]); the order of
//     selection is the key order.
//  3. Join ([Service.Join]), which stores a [merge.Result] and starts an
//     empty resolution map.
//  4. Decide each conflict ([Service.Resolve], [Service.ResolveAll]), or go
//     back ([Service.Back]) to change the keys.
//  5. Export ([Service.Export]) once nothing is left unresolved.
//
// Loading a file replaces that side and clears its key selection along with
// any join result. A failed load leaves the session as it was.
//
// # Error Handling
//
// Errors wrap package sentinels (see errors.go, [sheet.ErrUnparsableFile],
// [merge.ErrInvalidKeyConfiguration]) and are turned into user messages with
// support codes by [MapError].
//
// # Audit Logging
//
// Every state change is recorded through an [AuditStore]: the application
// log by default, or Postgres when a database is configured.
//
// Idle sessions are evicted by a cron job ([SessionSweeper]).
package core
