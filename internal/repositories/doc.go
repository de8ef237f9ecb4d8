// Package repositories provides the persistence layer for sync run history.
//
// Each completed sync pass records one row per target in the sync_runs table:
// what ran, where it converged to, and how many items were downloaded, kept,
// removed, or failed. The history command reads these rows back; nothing in
// the sync engine itself depends on this package.
package repositories
