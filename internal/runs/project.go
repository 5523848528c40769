package runs

// ProjectPage applies the client-side progress ordering to one fetched
// page of runs. Status filtering and pagination already happened
// server-side; the projection never reaches across page boundaries and
// holds no state between calls.
//
// With progressSort disabled the page comes back in reported order.
// The input slice is never mutated.
func ProjectPage(page []Record, progressSort bool, descending bool) []Record {
	out := make([]Record, len(page))
	copy(out, page)
	if progressSort {
		SortByProgress(out, descending)
	}
	return out
}
