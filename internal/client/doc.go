// Package client implements the HTTP consumer of the pipeline control
// plane: the paginated run listing, generation detail, fleet status,
// and the two worker mutation endpoints.
//
// Mutations are fire-and-refresh: no response payload is trusted for
// incremental state updates, callers re-fetch after a command lands.
// The Client satisfies fleet.CommandClient so the dispatcher can drive
// it directly.
package client
