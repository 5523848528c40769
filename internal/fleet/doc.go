// Package fleet models the worker fleet snapshot and the operations an
// operator can run against it.
//
// Snapshots are wholesale captures of fleet state; Query projects them
// through free-text search and a column sort for display. Dispatcher
// gates the mutating commands (shutdown, cancel-consumer, pool
// grow/shrink) behind an explicit confirm step and serializes them per
// view, with a validation floor that keeps pool sizes above zero
// before anything is dispatched.
package fleet
