package audit_test

import (
	"context"
	"fmt"
	"testing"

	"loom/internal/fleet"
	"loom/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := fleet.CommandRecord{
		ID:       "cmd-1",
		WorkerID: "worker-a",
		Action:   fleet.ActionShutdown,
		Outcome:  "ok",
	}
	if err := store.RecordCommand(ctx, record); err != nil {
		t.Fatalf("RecordCommand failed: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.CommandID != "cmd-1" || entry.WorkerID != "worker-a" || entry.Action != fleet.ActionShutdown {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be recorded")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	if err := first.RecordCommand(context.Background(), fleet.CommandRecord{
		ID:       "cmd-1",
		WorkerID: "worker-a",
		Action:   fleet.ActionPoolGrow,
		Option:   2,
		Outcome:  "ok",
	}); err != nil {
		t.Fatalf("RecordCommand failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	entries, err := second.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("reopened journal holds %d entries, want 1", len(entries))
	}
	if entries[0].Option != 2 {
		t.Fatalf("option = %d, want 2", entries[0].Option)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		record := fleet.CommandRecord{
			ID:       fmt.Sprintf("cmd-%d", i),
			WorkerID: "worker-a",
			Action:   fleet.ActionShutdown,
			Outcome:  "ok",
		}
		if err := store.RecordCommand(ctx, record); err != nil {
			t.Fatalf("RecordCommand %d failed: %v", i, err)
		}
	}

	entries, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want the limit of 3", len(entries))
	}
	if entries[0].CommandID != "cmd-4" || entries[2].CommandID != "cmd-2" {
		t.Fatalf("unexpected order: %s .. %s", entries[0].CommandID, entries[2].CommandID)
	}
}

func TestRecordFailureDetail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := fleet.CommandRecord{
		ID:       "cmd-1",
		WorkerID: "worker-a",
		Action:   fleet.ActionCancelConsumer,
		Queue:    "gpu-default",
		Outcome:  "error",
		Detail:   "worker unreachable",
	}
	if err := store.RecordCommand(ctx, record); err != nil {
		t.Fatalf("RecordCommand failed: %v", err)
	}

	entries, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	entry := entries[0]
	if entry.Outcome != "error" || entry.Detail != "worker unreachable" || entry.Queue != "gpu-default" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}
