// Package live provides a push-based observable value.
//
// A Value holds the current state and fans every change out to its
// subscribers. Each Subscription receives the current value immediately on
// subscribe and again after every published change, until it is closed.
//
// # Delivery Model
//
// Every subscriber owns a single-slot buffer. Publishing replaces whatever is
// waiting in that slot, so a subscriber that falls behind skips intermediate
// values but always observes the latest one. Publishing never blocks on a
// subscriber, and no subscriber can hold up another.
//
// Values delivered to subscribers are shared. Callers must treat slices and
// maps received from a Subscription as read-only.
package live
