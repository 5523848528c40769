package fleet

// WorkerStatus is the connectivity state reported for a worker node.
type WorkerStatus string

const (
	WorkerOnline  WorkerStatus = "online"
	WorkerOffline WorkerStatus = "offline"
)

// TaskRef identifies one task currently assigned to a worker.
type TaskRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Worker is one node of the fleet as reported by the status endpoint.
// Worker values are ephemeral: every snapshot refresh replaces them
// wholesale, so correlation across refreshes must key on ID.
type Worker struct {
	ID          string       `json:"id"`
	Hostname    string       `json:"hostname"`
	Status      WorkerStatus `json:"status"`
	Queues      []string     `json:"queues"`
	Concurrency int          `json:"concurrency"`
	PoolSize    int          `json:"pool_size"`
	Tasks       []TaskRef    `json:"tasks"`
}

// QueueCount returns the number of queues the worker consumes.
func (w Worker) QueueCount() int {
	return len(w.Queues)
}

// TaskCount returns the number of tasks assigned to the worker.
func (w Worker) TaskCount() int {
	return len(w.Tasks)
}

// Snapshot is a point-in-time capture of fleet state. Snapshots are
// replaced as a unit, never merged field by field, so a refresh can
// never race a mutation into a half-updated view.
type Snapshot struct {
	Workers          []Worker `json:"workers"`
	TotalActiveTasks int      `json:"total_active_tasks"`
	TotalQueuedTasks int      `json:"total_queued_tasks"`
	Warnings         []string `json:"warnings"`
}

// Empty reports whether the fleet has no workers at all. Callers use
// this to distinguish "nothing registered" from "nothing matched the
// query" when rendering empty states.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Workers) == 0
}

// Summary aggregates worker availability for one-line status output.
type Summary struct {
	Workers     int
	Online      int
	Offline     int
	ActiveTasks int
	QueuedTasks int
}

// Summarize computes fleet totals from the snapshot.
func (s *Snapshot) Summarize() Summary {
	if s == nil {
		return Summary{}
	}
	summary := Summary{
		Workers:     len(s.Workers),
		ActiveTasks: s.TotalActiveTasks,
		QueuedTasks: s.TotalQueuedTasks,
	}
	for _, worker := range s.Workers {
		if worker.Status == WorkerOnline {
			summary.Online++
		} else {
			summary.Offline++
		}
	}
	return summary
}
