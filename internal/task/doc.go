// Package task defines the task record, the highlight value, and the error
// taxonomy shared by the store and the coordinator.
//
// # Identity
//
// A task's ID is assigned by the store at creation and never changes. IDs are
// never reused after deletion, so an ID alone is enough to address a record for
// the lifetime of the database.
//
// # Titles
//
// Titles are normalized with NormalizeTitle (Unicode NFC, surrounding
// whitespace trimmed) before validation. A title that normalizes to the empty
// string is rejected with ErrInvalidInput.
package task
