// Command loom is the operator console for the generation pipeline:
// it inspects generations and their runs, watches pipeline progress,
// and manages the worker fleet behind the control plane API.
package main
