// Package config loads, normalizes, and validates Loom configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such
// as LOOM_API_TOKEN. The Config type centralizes every knob the CLI
// needs: control plane endpoint, poll intervals, page sizes, logging,
// and the command audit journal location.
//
// Always obtain settings through this package so downstream code
// receives sanitized paths, canonical log formats, and clear
// validation errors.
package config
