// Package logging builds the slog loggers used across the CLI.
//
// Two output formats exist: a compact console format for interactive
// use and line-delimited JSON for machine consumption. Output fans out
// to stderr plus the configured log file. Attribute helpers mirror the
// slog constructors so call sites stay terse.
package logging
