// Package audit keeps a local SQLite journal of every fleet command
// dispatched from this machine: what was sent, to which worker, and
// whether the control plane accepted it. The journal is advisory; a
// write failure never blocks the command itself.
package audit
