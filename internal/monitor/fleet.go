package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"loom/internal/fleet"
	"loom/internal/logging"
)

// FleetFetcher is the slice of the API client the fleet view needs.
type FleetFetcher interface {
	FleetStatus(ctx context.Context) (*fleet.Snapshot, error)
}

// FleetState is a point-in-time copy of what the fleet view would
// render: the projected worker list plus dispatcher status.
type FleetState struct {
	Snapshot   *fleet.Snapshot
	Workers    []fleet.Worker
	Summary    fleet.Summary
	Warnings   []string
	Query      fleet.Query
	Err        error
	Staged     *fleet.Command
	Phase      fleet.Phase
	CommandErr error
}

// FleetView polls the fleet status endpoint on a fixed cadence,
// applies the search and sort projection client-side, and owns the
// command dispatcher for worker mutations. Each applied snapshot
// replaces the previous one wholesale.
type FleetView struct {
	fetcher    FleetFetcher
	logger     *slog.Logger
	interval   time.Duration
	dispatcher *fleet.Dispatcher
	journal    fleet.Journal
	onUpdate   func()

	mu        sync.Mutex
	closed    bool
	snapshot  *fleet.Snapshot
	query     fleet.Query
	fetchErr  error
	fleetGate gate
}

// FleetOption configures a FleetView.
type FleetOption func(*FleetView)

// WithFleetJournal wires a command journal into the dispatcher.
func WithFleetJournal(journal fleet.Journal) FleetOption {
	return func(v *FleetView) {
		v.journal = journal
	}
}

// WithFleetUpdateHook registers a callback invoked after state changes.
// It may be called from the polling goroutine.
func WithFleetUpdateHook(fn func()) FleetOption {
	return func(v *FleetView) {
		v.onUpdate = fn
	}
}

// NewFleetView builds a fleet view. Completed mutations trigger an
// out-of-band snapshot fetch without disturbing the poll timer.
func NewFleetView(fetcher FleetFetcher, commands fleet.CommandClient, logger *slog.Logger, interval time.Duration, opts ...FleetOption) *FleetView {
	if logger == nil {
		logger = slog.Default()
	}
	view := &FleetView{
		fetcher:  fetcher,
		logger:   logger,
		interval: interval,
		query:    fleet.Query{SortBy: fleet.SortByHostname},
	}
	for _, opt := range opts {
		opt(view)
	}
	dispatcherOpts := []fleet.DispatcherOption{
		fleet.WithRefresh(func() {
			go view.Refresh(context.Background())
		}),
	}
	if view.journal != nil {
		dispatcherOpts = append(dispatcherOpts, fleet.WithJournal(view.journal))
	}
	view.dispatcher = fleet.NewDispatcher(commands, dispatcherOpts...)
	return view
}

// Run performs an initial fetch and then polls until the context is
// cancelled. On cancellation the view closes and discards any
// responses still in flight.
func (v *FleetView) Run(ctx context.Context) {
	v.Refresh(ctx)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			v.Close()
			return
		case <-ticker.C:
			v.Refresh(ctx)
		}
	}
}

// Refresh fetches the fleet snapshot once, out of band of the timer.
func (v *FleetView) Refresh(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	seq := v.fleetGate.begin()
	v.mu.Unlock()

	fetchID := uuid.NewString()
	v.logger.Debug("fetching fleet snapshot", logging.String("fetch_id", fetchID))

	snapshot, err := v.fetcher.FleetStatus(ctx)

	v.mu.Lock()
	if v.closed || !v.fleetGate.tryApply(seq) {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.fetchErr = err
	} else {
		v.snapshot = snapshot
		v.fetchErr = nil
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("fleet fetch failed",
			logging.String("fetch_id", fetchID),
			logging.Error(err))
	} else {
		v.dispatcher.NoteRefresh()
	}
	v.notify()
}

// SetSearch updates the free-text filter. Projection only, no fetch.
func (v *FleetView) SetSearch(search string) {
	v.mu.Lock()
	v.query.Search = search
	v.mu.Unlock()
	v.notify()
}

// SetSort updates the sort column and direction. Projection only.
func (v *FleetView) SetSort(field fleet.SortField, descending bool) {
	v.mu.Lock()
	v.query.SortBy = field
	v.query.Descending = descending
	v.mu.Unlock()
	v.notify()
}

// Dispatcher exposes the command dispatcher for staging and confirming
// worker mutations.
func (v *FleetView) Dispatcher() *fleet.Dispatcher {
	return v.dispatcher
}

// State copies out the current view state with the query projection
// applied.
func (v *FleetView) State() FleetState {
	v.mu.Lock()
	snapshot := v.snapshot
	query := v.query
	fetchErr := v.fetchErr
	v.mu.Unlock()

	state := FleetState{
		Snapshot:   snapshot,
		Query:      query,
		Err:        fetchErr,
		Phase:      v.dispatcher.Phase(),
		CommandErr: v.dispatcher.Err(),
	}
	if staged, ok := v.dispatcher.Staged(); ok {
		state.Staged = &staged
	}
	if snapshot != nil {
		state.Workers = query.Apply(snapshot)
		state.Summary = snapshot.Summarize()
		state.Warnings = snapshot.Warnings
	}
	return state
}

// Close tears the view down. Fetches already in flight may complete
// but their results are discarded; no state is written after Close.
func (v *FleetView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func (v *FleetView) notify() {
	if v.onUpdate != nil {
		v.onUpdate()
	}
}
