// Package coordinator is the single entry point for the presentation layer.
//
// A Coordinator accepts task commands, runs them against the store in a
// well-defined order, and derives the transient highlight that marks the most
// recently toggled or edited task.
//
// # Command Model
//
// Commands return immediately with a result channel that yields exactly one
// error (nil on success) and is then closed. Callers may ignore it.
//
// Commands are routed to FIFO lanes keyed by task id, so mutations of the same
// task apply in issue order while mutations of different tasks run
// concurrently. Creates share one lane, which keeps assigned ids in issue
// order.
//
// # Highlight
//
// There is one highlight slot. Every successful toggle or edit takes the slot
// and schedules its own clear after the highlight window. Each set is stamped
// with a version from a monotonic clock; a clear only applies while the slot
// still carries the version that scheduled it, and the previous pending timer
// is stopped when a new one is scheduled. A clear that fires after Close does
// nothing.
//
// Deleting the highlighted task leaves the highlight in place until its own
// window ends.
package coordinator
