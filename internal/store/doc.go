// Package store provides SQLite-backed durable storage for compiled token
// sequences.
//
// The store keeps:
//   - Sequences: content-addressed by ir.SequenceHash
//   - Tokens: one row per token, keyed by (sequence_hash, position)
//   - Compilations: one row per compile run, keyed by a UUIDv7
//   - Compilation messages: the ordered sequence hashes a run produced
//
// # Identity and Ordering
//
// Sequence rows are written with ON CONFLICT DO NOTHING, so writing the
// same sequence twice is a no-op and returns the same hash. Queries order
// by name and hash (COLLATE BINARY), never by wall time, so listings are
// identical across machines.
//
// Tokens are rebuilt through ir.TokenView.FromView on read, so every
// constructor invariant holds for sequences loaded from disk.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
