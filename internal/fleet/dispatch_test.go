package fleet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type commandClientStub struct {
	mu          sync.Mutex
	actionCalls []Command
	cancelCalls []Command
	actionErr   error
	cancelErr   error
	blockUntil  chan struct{}
}

func (s *commandClientStub) WorkerAction(_ context.Context, workerID string, action Action, option int) error {
	if s.blockUntil != nil {
		<-s.blockUntil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionCalls = append(s.actionCalls, Command{WorkerID: workerID, Action: action, Magnitude: option})
	return s.actionErr
}

func (s *commandClientStub) CancelConsumer(_ context.Context, workerID, queue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelCalls = append(s.cancelCalls, Command{WorkerID: workerID, Action: ActionCancelConsumer, Queue: queue})
	return s.cancelErr
}

func (s *commandClientStub) actionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actionCalls)
}

type journalStub struct {
	mu      sync.Mutex
	records []CommandRecord
}

func (j *journalStub) RecordCommand(_ context.Context, record CommandRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, record)
	return nil
}

func TestStageConcurrencyRejectsPoolFloor(t *testing.T) {
	client := &commandClientStub{}
	dispatcher := NewDispatcher(client)
	worker := Worker{ID: "w-1", PoolSize: 2}

	for _, delta := range []int{-2, -3} {
		if _, err := dispatcher.StageConcurrency(worker, delta); !errors.Is(err, ErrPoolFloor) {
			t.Fatalf("StageConcurrency(pool 2, delta %d) err = %v, want ErrPoolFloor", delta, err)
		}
	}
	if _, err := dispatcher.StageConcurrency(worker, 0); !errors.Is(err, ErrZeroDelta) {
		t.Fatalf("StageConcurrency(delta 0) err = %v, want ErrZeroDelta", err)
	}
	if dispatcher.Phase() != PhaseIdle {
		t.Fatalf("phase = %s after rejected staging, want idle", dispatcher.Phase())
	}
	if client.actionCount() != 0 {
		t.Fatal("rejected staging must not reach the network")
	}

	// poolSize + delta >= 1 is accepted.
	if _, err := dispatcher.StageConcurrency(worker, -1); err != nil {
		t.Fatalf("StageConcurrency(pool 2, delta -1) err = %v, want nil", err)
	}
}

func TestStageConcurrencyDirection(t *testing.T) {
	dispatcher := NewDispatcher(&commandClientStub{})
	worker := Worker{ID: "w-1", PoolSize: 4}

	command, err := dispatcher.StageConcurrency(worker, 3)
	if err != nil {
		t.Fatalf("StageConcurrency(+3): %v", err)
	}
	if command.Action != ActionPoolGrow || command.Magnitude != 3 {
		t.Fatalf("staged %s/%d, want pool_grow/3", command.Action, command.Magnitude)
	}
	dispatcher.Dismiss()

	command, err = dispatcher.StageConcurrency(worker, -2)
	if err != nil {
		t.Fatalf("StageConcurrency(-2): %v", err)
	}
	if command.Action != ActionPoolShrink || command.Magnitude != 2 {
		t.Fatalf("staged %s/%d, want pool_shrink/2", command.Action, command.Magnitude)
	}
}

func TestDispatcherConfirmCycle(t *testing.T) {
	client := &commandClientStub{}
	journal := &journalStub{}
	refreshed := 0
	dispatcher := NewDispatcher(client, WithJournal(journal), WithRefresh(func() { refreshed++ }))

	command, err := dispatcher.StageShutdown("w-9")
	if err != nil {
		t.Fatalf("StageShutdown: %v", err)
	}
	if command.ID == "" {
		t.Fatal("staged command has no id")
	}
	if dispatcher.Phase() != PhaseConfirming {
		t.Fatalf("phase = %s, want confirming", dispatcher.Phase())
	}

	if err := dispatcher.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if dispatcher.Phase() != PhaseIdle {
		t.Fatalf("phase = %s after confirm, want idle", dispatcher.Phase())
	}
	if client.actionCount() != 1 {
		t.Fatalf("action calls = %d, want 1", client.actionCount())
	}
	if refreshed != 1 {
		t.Fatalf("refresh hook fired %d times, want 1", refreshed)
	}
	if len(journal.records) != 1 || journal.records[0].Outcome != "ok" {
		t.Fatalf("journal records = %+v, want one ok entry", journal.records)
	}
}

func TestDispatcherSerializesMutations(t *testing.T) {
	client := &commandClientStub{blockUntil: make(chan struct{})}
	dispatcher := NewDispatcher(client)

	if _, err := dispatcher.StageShutdown("w-1"); err != nil {
		t.Fatalf("StageShutdown: %v", err)
	}
	if _, err := dispatcher.StageShutdown("w-2"); !errors.Is(err, ErrMutationPending) {
		t.Fatalf("second staging err = %v, want ErrMutationPending", err)
	}

	done := make(chan error, 1)
	go func() { done <- dispatcher.Confirm(context.Background()) }()

	// While the confirmed command is still in flight, nothing else can
	// be staged and the busy flag is up.
	deadline := time.Now().Add(5 * time.Second)
	for dispatcher.Phase() != PhaseInFlight {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher never entered the in-flight phase")
		}
		time.Sleep(time.Millisecond)
	}
	if !dispatcher.Busy() {
		t.Fatal("Busy() = false while command in flight")
	}
	if _, err := dispatcher.StageCancelConsumer("w-2", "render"); !errors.Is(err, ErrMutationPending) {
		t.Fatalf("staging while in flight err = %v, want ErrMutationPending", err)
	}

	close(client.blockUntil)
	if err := <-done; err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := dispatcher.StageCancelConsumer("w-2", "render"); err != nil {
		t.Fatalf("staging after completion err = %v, want nil", err)
	}
}

func TestDispatcherRetainsFailure(t *testing.T) {
	client := &commandClientStub{actionErr: errors.New("boom")}
	refreshed := 0
	dispatcher := NewDispatcher(client, WithRefresh(func() { refreshed++ }))

	if _, err := dispatcher.StageShutdown("w-1"); err != nil {
		t.Fatalf("StageShutdown: %v", err)
	}
	if err := dispatcher.Confirm(context.Background()); err == nil {
		t.Fatal("Confirm should surface the client error")
	}
	if refreshed != 1 {
		t.Fatalf("refresh hook fired %d times on failure, want 1", refreshed)
	}
	if dispatcher.Phase() != PhaseIdle {
		t.Fatalf("phase = %s after failure, want idle (view stays interactive)", dispatcher.Phase())
	}
	if dispatcher.Err() == nil {
		t.Fatal("failure must be retained until the next action or refresh")
	}

	dispatcher.NoteRefresh()
	if dispatcher.Err() != nil {
		t.Fatal("successful refresh must clear the retained error")
	}
}

func TestDispatcherClearsErrorOnNextStage(t *testing.T) {
	client := &commandClientStub{cancelErr: errors.New("boom")}
	dispatcher := NewDispatcher(client)

	if _, err := dispatcher.StageCancelConsumer("w-1", "render"); err != nil {
		t.Fatalf("StageCancelConsumer: %v", err)
	}
	_ = dispatcher.Confirm(context.Background())
	if dispatcher.Err() == nil {
		t.Fatal("expected retained error")
	}

	if _, err := dispatcher.StageShutdown("w-1"); err != nil {
		t.Fatalf("StageShutdown: %v", err)
	}
	if dispatcher.Err() != nil {
		t.Fatal("staging a new command must clear the previous error")
	}
}

func TestDispatcherConfirmWithoutStage(t *testing.T) {
	dispatcher := NewDispatcher(&commandClientStub{})
	if err := dispatcher.Confirm(context.Background()); !errors.Is(err, ErrNothingStaged) {
		t.Fatalf("Confirm err = %v, want ErrNothingStaged", err)
	}
}

func TestDispatcherJournalsFailures(t *testing.T) {
	client := &commandClientStub{actionErr: errors.New("worker gone")}
	journal := &journalStub{}
	dispatcher := NewDispatcher(client, WithJournal(journal))

	worker := Worker{ID: "w-1", PoolSize: 4}
	if _, err := dispatcher.StageConcurrency(worker, -1); err != nil {
		t.Fatalf("StageConcurrency: %v", err)
	}
	_ = dispatcher.Confirm(context.Background())

	if len(journal.records) != 1 {
		t.Fatalf("journal records = %d, want 1", len(journal.records))
	}
	record := journal.records[0]
	if record.Outcome != "error" || record.Action != ActionPoolShrink || record.Option != 1 {
		t.Fatalf("journal record = %+v, want error pool_shrink/1", record)
	}
}
