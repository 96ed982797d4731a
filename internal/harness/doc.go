// Package harness runs YAML task scenarios against a real store and
// coordinator and records a deterministic trace.
//
// Each scenario runs in a fresh SQLite database, so task ids start at 1 and
// traces are reproducible. A scenario is a list of steps, each naming exactly
// one command:
//
//	steps:
//	  - add: Buy milk
//	  - toggle: 0          # index into the current list, newest first
//	  - edit: {index: 0, title: Buy oat milk}
//	  - wait_highlight_clear: true
//	  - delete: 0
//
// After every step the harness snapshots the task list and the highlight.
// The optional expect block is checked against the final state.
//
// RunWithGolden compares the trace with testdata/golden/<name>.golden. To
// regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
