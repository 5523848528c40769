// Package runs models generation runs as read from the listing
// endpoint and implements the operator triage ordering over them.
//
// The comparator ranks runs by pipeline progress using the stage
// catalog: terminal runs last, then by highest completed stage, then by
// the earliest in-flight stage. StatusFilter drives the repeated state
// query parameter of the listing endpoint, and ProjectPage reorders a
// single fetched page without ever mixing pages.
//
// Everything in this package is a pure function over value data; runs
// are created and mutated only by the generation executor.
package runs
