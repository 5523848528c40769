package runs

import (
	"sort"

	"loom/internal/stage"
)

// CompareProgress orders two runs by how far they have advanced through
// the pipeline, least progressed first. It returns -1, 0, or 1.
//
// Terminal runs (completed or failed) always rank after non-terminal
// ones regardless of their stage fields; two terminal runs are
// equal-ranked. Among non-terminal runs the completed-stage rank
// decides, then the in-progress stage breaks ties with one twist: a run
// with nothing in flight sorts before a run that has work in flight,
// even though an unknown in-progress stage also resolves to the same
// sentinel rank.
func CompareProgress(a, b *Record) int {
	aTerminal := a.Status.Terminal()
	bTerminal := b.Status.Terminal()
	switch {
	case aTerminal && bTerminal:
		return 0
	case aTerminal:
		return 1
	case bTerminal:
		return -1
	}

	aCompleted := rankOf(a.LatestCompletedStage)
	bCompleted := rankOf(b.LatestCompletedStage)
	if aCompleted != bCompleted {
		return compareInts(aCompleted, bCompleted)
	}

	aHasInFlight := a.EarliestInProgressStage != nil
	bHasInFlight := b.EarliestInProgressStage != nil
	switch {
	case !aHasInFlight && !bHasInFlight:
		return 0
	case !aHasInFlight:
		return -1
	case !bHasInFlight:
		return 1
	}
	return compareInts(rankOf(a.EarliestInProgressStage), rankOf(b.EarliestInProgressStage))
}

// SortByProgress stably sorts records in place by pipeline progress.
// Descending reverses the order so the most advanced runs come first.
func SortByProgress(records []Record, descending bool) {
	sort.SliceStable(records, func(i, j int) bool {
		c := CompareProgress(&records[i], &records[j])
		if descending {
			return c > 0
		}
		return c < 0
	})
}

func rankOf(id *stage.ID) int {
	if id == nil {
		return stage.UnknownRank
	}
	return stage.Rank(*id)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
