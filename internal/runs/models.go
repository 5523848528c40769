package runs

import (
	"time"

	"loom/internal/stage"
)

// Status represents the lifecycle of a run as reported by the
// generation executor.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInRetry    Status = "IN_RETRY"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var allStatuses = []Status{
	StatusCreated,
	StatusInProgress,
	StatusInRetry,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Statuses returns every run status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// KnownStatus reports whether status is one of the run lifecycle values.
func KnownStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// Terminal reports whether the run has finished, successfully or not.
// Terminal runs rank after every non-terminal run in progress order.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is a single run as returned by the listing endpoint. Runs are
// owned and mutated by the generation executor; this layer only reads
// them.
type Record struct {
	ID           string `json:"id"`
	GenerationID string `json:"generation_id"`

	ModelID      string `json:"model_id"`
	ModelName    string `json:"model_name"`
	PromptID     string `json:"prompt_id"`
	PromptName   string `json:"prompt_name"`
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`

	Status Status `json:"status"`

	// LatestCompletedStage is the highest stage fully finished; nil
	// means nothing has completed yet.
	LatestCompletedStage *stage.ID `json:"latest_completed_stage"`
	// EarliestInProgressStage is the lowest stage currently executing;
	// nil means nothing is in flight.
	EarliestInProgressStage *stage.ID `json:"earliest_in_progress_stage"`
}

// Generation is a named batch of runs. The run collection is paged
// separately through the listing endpoint.
type Generation struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
	CreatedBy        string    `json:"created_by"`
	RunCount         int       `json:"run_count"`
	Status           Status    `json:"status"`
	DefaultTestSetID string    `json:"default_test_set_id,omitempty"`
}
