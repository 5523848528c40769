package fleet

import (
	"sort"
	"strings"
)

// SortField selects the column a fleet view is ordered by.
type SortField string

const (
	SortByHostname    SortField = "hostname"
	SortByStatus      SortField = "status"
	SortByQueueCount  SortField = "queue_count"
	SortByConcurrency SortField = "concurrency"
	SortByTaskCount   SortField = "task_count"
)

var sortFields = []SortField{
	SortByHostname,
	SortByStatus,
	SortByQueueCount,
	SortByConcurrency,
	SortByTaskCount,
}

// SortFields returns the supported sort columns.
func SortFields() []SortField {
	out := make([]SortField, len(sortFields))
	copy(out, sortFields)
	return out
}

// KnownSortField reports whether field is a supported sort column.
func KnownSortField(field SortField) bool {
	for _, candidate := range sortFields {
		if candidate == field {
			return true
		}
	}
	return false
}

// Query is a free-text filter plus column sort over a fleet snapshot.
type Query struct {
	Search     string
	SortBy     SortField
	Descending bool
}

// Apply filters, then sorts, the snapshot's workers. The snapshot is
// not modified; an empty result is a valid outcome and distinct from an
// empty fleet (see Snapshot.Empty).
func (q Query) Apply(snapshot *Snapshot) []Worker {
	if snapshot == nil {
		return nil
	}
	matched := make([]Worker, 0, len(snapshot.Workers))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, worker := range snapshot.Workers {
		if needle == "" || workerMatches(worker, needle) {
			matched = append(matched, worker)
		}
	}
	q.sortWorkers(matched)
	return matched
}

func workerMatches(worker Worker, needle string) bool {
	if strings.Contains(strings.ToLower(worker.Hostname), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(worker.ID), needle) {
		return true
	}
	for _, queue := range worker.Queues {
		if strings.Contains(strings.ToLower(queue), needle) {
			return true
		}
	}
	for _, task := range worker.Tasks {
		if strings.Contains(strings.ToLower(task.ID), needle) ||
			strings.Contains(strings.ToLower(task.Name), needle) ||
			strings.Contains(strings.ToLower(task.Status), needle) {
			return true
		}
	}
	return false
}

func (q Query) sortWorkers(workers []Worker) {
	field := q.SortBy
	if field == "" {
		field = SortByHostname
	}
	sort.SliceStable(workers, func(i, j int) bool {
		less := workerLess(workers[i], workers[j], field)
		if q.Descending {
			return workerLess(workers[j], workers[i], field)
		}
		return less
	})
}

func workerLess(a, b Worker, field SortField) bool {
	switch field {
	case SortByStatus:
		return a.Status < b.Status
	case SortByQueueCount:
		return a.QueueCount() < b.QueueCount()
	case SortByConcurrency:
		return a.Concurrency < b.Concurrency
	case SortByTaskCount:
		return a.TaskCount() < b.TaskCount()
	default:
		return strings.ToLower(a.Hostname) < strings.ToLower(b.Hostname)
	}
}
