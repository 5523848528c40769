// Package stage defines the fixed, ordered catalog of generation
// pipeline stages and the rank lookup used to compare run progress.
//
// The catalog is immutable at runtime. Rank resolves any stage name,
// including ones this build has never heard of, so callers never need
// to guard against unknown identifiers; anything outside the catalog
// ranks as UnknownRank, below the first real stage.
package stage
