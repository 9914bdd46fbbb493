// Package store provides the SQLite-backed session ledger.
//
// Every committed emission session appends one row: which module (by
// content hash) was rendered for which target with which options (by hash),
// and the sha256 of what came out. A fresh run whose output hash differs
// from the newest row with the same (target, input hash, options hash) key
// is non-deterministic.
//
// Rows are never updated. seq is assigned by SQLite and is the only
// ordering key; wall-clock time is not stored.
//
// The schema is versioned with PRAGMA user_version. schema.sql holds the
// original table and the migrations slice in store.go upgrades it step by
// step, so ledgers written by older binaries keep working.
package store
