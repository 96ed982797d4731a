// Package store provides SQLite-backed durable storage for task records.
//
// The store owns a single table:
//   - tasks: id (store-assigned, never reused), title (non-empty), done
//
// # Live Query
//
// ObserveAll returns a subscription that yields the full record set,
// newest id first, immediately and again after every successful mutation.
// Snapshots are republished before the mutating call returns, so a caller
// that awaits Update and then reads the live query sees the new state.
//
// # Write Ordering
//
// Mutations are serialized by a write lock that also covers the snapshot
// republish. Two writes to the same id are applied in call order; writes to
// different ids are each atomic and both show up in the next snapshot.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
