package fleet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Action is a worker mutation as accepted by the infra endpoints.
type Action string

const (
	ActionShutdown       Action = "shutdown"
	ActionPoolGrow       Action = "pool_grow"
	ActionPoolShrink     Action = "pool_shrink"
	ActionCancelConsumer Action = "cancel_consumer"
)

// Phase is the dispatcher's position in the confirm cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConfirming
	PhaseInFlight
)

func (p Phase) String() string {
	switch p {
	case PhaseConfirming:
		return "confirming"
	case PhaseInFlight:
		return "in-flight"
	default:
		return "idle"
	}
}

var (
	// ErrMutationPending indicates another command is staged or in
	// flight; mutations are serialized per fleet view.
	ErrMutationPending = errors.New("another fleet mutation is pending")
	// ErrNothingStaged indicates Confirm was called without a staged command.
	ErrNothingStaged = errors.New("no fleet command staged")
	// ErrZeroDelta indicates a concurrency change with no direction.
	ErrZeroDelta = errors.New("concurrency delta must be non-zero")
	// ErrPoolFloor indicates the requested change would drive the pool
	// size to zero or below; rejected before any network call.
	ErrPoolFloor = errors.New("pool size must stay above zero")
)

// Command is one staged worker mutation awaiting confirmation.
type Command struct {
	ID        string
	WorkerID  string
	Action    Action
	Queue     string
	Magnitude int
}

// Describe renders the command for a confirmation prompt.
func (c Command) Describe() string {
	switch c.Action {
	case ActionShutdown:
		return fmt.Sprintf("shut down worker %s (irreversible, stops all processing)", c.WorkerID)
	case ActionCancelConsumer:
		return fmt.Sprintf("stop worker %s consuming queue %q", c.WorkerID, c.Queue)
	case ActionPoolGrow:
		return fmt.Sprintf("grow worker %s pool by %d", c.WorkerID, c.Magnitude)
	case ActionPoolShrink:
		return fmt.Sprintf("shrink worker %s pool by %d", c.WorkerID, c.Magnitude)
	default:
		return fmt.Sprintf("%s on worker %s", c.Action, c.WorkerID)
	}
}

// CommandRecord is the journal entry written after a confirmed command
// finishes, successfully or not.
type CommandRecord struct {
	ID       string
	WorkerID string
	Action   Action
	Queue    string
	Option   int
	Outcome  string
	Detail   string
}

// CommandClient issues worker mutations against the infra endpoints.
type CommandClient interface {
	WorkerAction(ctx context.Context, workerID string, action Action, option int) error
	CancelConsumer(ctx context.Context, workerID, queue string) error
}

// Journal persists finished commands for later operator review.
type Journal interface {
	RecordCommand(ctx context.Context, record CommandRecord) error
}

// DispatcherOption configures optional dispatcher collaborators.
type DispatcherOption func(*Dispatcher)

// WithJournal records every confirmed command in the given journal.
func WithJournal(journal Journal) DispatcherOption {
	return func(d *Dispatcher) { d.journal = journal }
}

// WithRefresh registers the snapshot refresh triggered after a command
// completes, successfully or not.
func WithRefresh(refresh func()) DispatcherOption {
	return func(d *Dispatcher) { d.onRefresh = refresh }
}

// Dispatcher owns the two-step confirm cycle for fleet mutations:
// idle -> confirming -> in-flight -> idle. One command at a time; the
// in-flight phase doubles as the view-level busy flag that disables
// other mutating controls.
type Dispatcher struct {
	client    CommandClient
	journal   Journal
	onRefresh func()

	mu      sync.Mutex
	phase   Phase
	staged  *Command
	lastErr error
}

// NewDispatcher constructs a dispatcher over the given command client.
func NewDispatcher(client CommandClient, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{client: client}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// StageShutdown stages an irreversible worker shutdown.
func (d *Dispatcher) StageShutdown(workerID string) (Command, error) {
	return d.stage(Command{WorkerID: workerID, Action: ActionShutdown})
}

// StageCancelConsumer stages cancellation of one queue consumer on a
// worker; other queues are unaffected.
func (d *Dispatcher) StageCancelConsumer(workerID, queue string) (Command, error) {
	return d.stage(Command{WorkerID: workerID, Action: ActionCancelConsumer, Queue: queue})
}

// StageConcurrency stages a signed pool-size change for the worker.
// A delta that would drive the pool to zero or below is rejected here,
// before anything touches the network.
func (d *Dispatcher) StageConcurrency(worker Worker, delta int) (Command, error) {
	if delta == 0 {
		return Command{}, ErrZeroDelta
	}
	if worker.PoolSize+delta < 1 {
		return Command{}, fmt.Errorf("worker %s pool is %d: %w", worker.ID, worker.PoolSize, ErrPoolFloor)
	}
	command := Command{WorkerID: worker.ID, Action: ActionPoolGrow, Magnitude: delta}
	if delta < 0 {
		command.Action = ActionPoolShrink
		command.Magnitude = -delta
	}
	return d.stage(command)
}

func (d *Dispatcher) stage(command Command) (Command, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseIdle {
		return Command{}, ErrMutationPending
	}
	command.ID = uuid.NewString()
	d.staged = &command
	d.phase = PhaseConfirming
	d.lastErr = nil
	return command, nil
}

// Dismiss abandons the staged command without dispatching it.
func (d *Dispatcher) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseConfirming {
		d.staged = nil
		d.phase = PhaseIdle
	}
	d.lastErr = nil
}

// Confirm dispatches the staged command. The confirm state is always
// cleared afterwards and the refresh hook fires whether the call
// succeeded or failed; a failure stays visible via Err until the next
// staging or a successful refresh.
func (d *Dispatcher) Confirm(ctx context.Context) error {
	d.mu.Lock()
	if d.phase != PhaseConfirming || d.staged == nil {
		d.mu.Unlock()
		return ErrNothingStaged
	}
	command := *d.staged
	d.phase = PhaseInFlight
	d.mu.Unlock()

	err := d.perform(ctx, command)
	d.record(ctx, command, err)

	d.mu.Lock()
	d.staged = nil
	d.phase = PhaseIdle
	d.lastErr = err
	d.mu.Unlock()

	if d.onRefresh != nil {
		d.onRefresh()
	}
	return err
}

func (d *Dispatcher) perform(ctx context.Context, command Command) error {
	if command.Action == ActionCancelConsumer {
		if err := d.client.CancelConsumer(ctx, command.WorkerID, command.Queue); err != nil {
			return fmt.Errorf("cancel consumer %q on worker %s: %w", command.Queue, command.WorkerID, err)
		}
		return nil
	}
	if err := d.client.WorkerAction(ctx, command.WorkerID, command.Action, command.Magnitude); err != nil {
		return fmt.Errorf("%s worker %s: %w", command.Action, command.WorkerID, err)
	}
	return nil
}

func (d *Dispatcher) record(ctx context.Context, command Command, err error) {
	if d.journal == nil {
		return
	}
	record := CommandRecord{
		ID:       command.ID,
		WorkerID: command.WorkerID,
		Action:   command.Action,
		Queue:    command.Queue,
		Option:   command.Magnitude,
		Outcome:  "ok",
	}
	if err != nil {
		record.Outcome = "error"
		record.Detail = err.Error()
	}
	// Journal failures never block the command outcome.
	_ = d.journal.RecordCommand(ctx, record)
}

// Phase returns the dispatcher's current phase.
func (d *Dispatcher) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Busy reports whether a confirmed command is still in flight.
func (d *Dispatcher) Busy() bool {
	return d.Phase() == PhaseInFlight
}

// Staged returns the command awaiting confirmation, if any.
func (d *Dispatcher) Staged() (Command, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.staged == nil {
		return Command{}, false
	}
	return *d.staged, true
}

// Err returns the failure of the most recent dispatch, if it has not
// been cleared by a newer action or refresh.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// NoteRefresh clears a retained dispatch error after a successful
// snapshot refresh.
func (d *Dispatcher) NoteRefresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastErr = nil
}
