package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"loom/internal/client"
	"loom/internal/logging"
	"loom/internal/runs"
)

// GenerationFetcher is the slice of the API client the generation view
// needs.
type GenerationFetcher interface {
	GetGeneration(ctx context.Context, id string) (*runs.Generation, error)
	ListRuns(ctx context.Context, query client.RunListQuery) (*client.RunPage, error)
}

// GenerationState is a point-in-time copy of what the generation view
// would render.
type GenerationState struct {
	Generation   *runs.Generation
	Runs         []runs.Record
	Paging       client.Paging
	Page         int
	FilterAll    bool
	Filter       []runs.Status
	ProgressSort bool
	Descending   bool
	Err          error
}

// GenerationView polls a single generation record on a fixed cadence
// and fetches its run list on demand (page turns, filter changes). Run
// ordering by pipeline progress is a client-side projection over the
// current page only.
type GenerationView struct {
	fetcher      GenerationFetcher
	logger       *slog.Logger
	generationID string
	interval     time.Duration
	pageSize     int
	onUpdate     func()

	mu           sync.Mutex
	closed       bool
	generation   *runs.Generation
	page         *client.RunPage
	pageNum      int
	filter       *runs.StatusFilter
	progressSort bool
	descending   bool
	fetchErr     error
	genGate      gate
	runGate      gate
}

// GenerationOption configures a GenerationView.
type GenerationOption func(*GenerationView)

// WithGenerationUpdateHook registers a callback invoked after state
// changes, typically to trigger a re-render. It may be called from the
// polling goroutine.
func WithGenerationUpdateHook(fn func()) GenerationOption {
	return func(v *GenerationView) {
		v.onUpdate = fn
	}
}

// NewGenerationView builds a view for one generation. The interval
// controls record polling; the run list is never fetched on the timer.
func NewGenerationView(fetcher GenerationFetcher, logger *slog.Logger, generationID string, interval time.Duration, pageSize int, opts ...GenerationOption) *GenerationView {
	if logger == nil {
		logger = slog.Default()
	}
	view := &GenerationView{
		fetcher:      fetcher,
		logger:       logger,
		generationID: generationID,
		interval:     interval,
		pageSize:     pageSize,
		pageNum:      1,
		filter:       runs.NewStatusFilter(),
	}
	for _, opt := range opts {
		opt(view)
	}
	return view
}

// Run performs an initial fetch of both the record and the run list,
// then polls the record until the context is cancelled. On cancellation
// the view closes and discards any responses still in flight.
func (v *GenerationView) Run(ctx context.Context) {
	v.RefreshRecord(ctx)
	v.RefreshRuns(ctx)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			v.Close()
			return
		case <-ticker.C:
			v.RefreshRecord(ctx)
		}
	}
}

// RefreshRecord fetches the generation record once, out of band of the
// timer.
func (v *GenerationView) RefreshRecord(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	seq := v.genGate.begin()
	v.mu.Unlock()

	fetchID := uuid.NewString()
	v.logger.Debug("fetching generation record",
		logging.String("fetch_id", fetchID),
		logging.String("generation_id", v.generationID))

	generation, err := v.fetcher.GetGeneration(ctx, v.generationID)

	v.mu.Lock()
	if v.closed || !v.genGate.tryApply(seq) {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.fetchErr = err
	} else {
		v.generation = generation
		v.fetchErr = nil
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("generation fetch failed",
			logging.String("fetch_id", fetchID),
			logging.Error(err))
	}
	v.notify()
}

// RefreshRuns fetches the run list for the current page and filter.
func (v *GenerationView) RefreshRuns(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	seq := v.runGate.begin()
	query := client.RunListQuery{
		GenerationID: v.generationID,
		Page:         v.pageNum,
		PageSize:     v.pageSize,
		States:       v.filter.Params(),
	}
	v.mu.Unlock()

	fetchID := uuid.NewString()
	v.logger.Debug("fetching run list",
		logging.String("fetch_id", fetchID),
		logging.Int("page", query.Page))

	page, err := v.fetcher.ListRuns(ctx, query)

	v.mu.Lock()
	if v.closed || !v.runGate.tryApply(seq) {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.fetchErr = err
	} else {
		v.page = page
		v.fetchErr = nil
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("run list fetch failed",
			logging.String("fetch_id", fetchID),
			logging.Error(err))
	}
	v.notify()
}

// SetPage moves to the given page and refetches the run list.
func (v *GenerationView) SetPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	v.mu.Lock()
	v.pageNum = page
	v.mu.Unlock()
	v.RefreshRuns(ctx)
}

// ToggleStatus flips one status in the filter, resets to the first
// page, and refetches.
func (v *GenerationView) ToggleStatus(ctx context.Context, status runs.Status) {
	v.mu.Lock()
	v.filter.Toggle(status)
	v.pageNum = 1
	v.mu.Unlock()
	v.RefreshRuns(ctx)
}

// SelectAllStatuses clears the filter back to the unfiltered state,
// resets to the first page, and refetches.
func (v *GenerationView) SelectAllStatuses(ctx context.Context) {
	v.mu.Lock()
	v.filter.SelectAll()
	v.pageNum = 1
	v.mu.Unlock()
	v.RefreshRuns(ctx)
}

// SetProgressSort switches the client-side progress ordering. No fetch
// is needed; the projection applies to the page already held.
func (v *GenerationView) SetProgressSort(enabled, descending bool) {
	v.mu.Lock()
	v.progressSort = enabled
	v.descending = descending
	v.mu.Unlock()
	v.notify()
}

// State copies out the current view state, with the progress projection
// applied to the held page.
func (v *GenerationView) State() GenerationState {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := GenerationState{
		Generation:   v.generation,
		Page:         v.pageNum,
		FilterAll:    v.filter.All(),
		Filter:       v.filter.Selected(),
		ProgressSort: v.progressSort,
		Descending:   v.descending,
		Err:          v.fetchErr,
	}
	if v.page != nil {
		state.Runs = runs.ProjectPage(v.page.Data, v.progressSort, v.descending)
		state.Paging = v.page.Paging
	}
	return state
}

// Close tears the view down. Fetches already in flight may complete
// but their results are discarded; no state is written after Close.
func (v *GenerationView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func (v *GenerationView) notify() {
	if v.onUpdate != nil {
		v.onUpdate()
	}
}
