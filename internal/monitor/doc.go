// Package monitor holds the view controllers behind the interactive
// commands: periodic polling of generation and fleet state, client-side
// projection settings, and command dispatch. Each view serializes its
// state behind a mutex and orders fetch responses so that a slow
// response never overwrites a newer one.
package monitor
