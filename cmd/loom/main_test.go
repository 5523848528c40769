package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func newControlPlane(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunsCommandRendersPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("generation_id"); got != "gen-1" {
			t.Errorf("generation_id = %q, want gen-1", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id":         "run-1",
					"model_name": "nova-large",
					"status":     "IN_PROGRESS",
				},
				{
					"id":         "run-2",
					"model_name": "nova-small",
					"status":     "COMPLETED",
				},
			},
			"paging": map[string]any{
				"page": 1, "page_size": 25, "total_pages": 4, "total_items": 87,
			},
		})
	})
	server := newControlPlane(t, mux)
	configPath := writeTestConfig(t, server.URL)

	out, _, err := runCLI(t, []string{"runs", "--generation", "gen-1"}, configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "nova-large")
	requireContains(t, out, "In Progress")
	requireContains(t, out, "Page 1 of 4 (87 runs)")
}

func TestRunsCommandRejectsUnknownStatus(t *testing.T) {
	configPath := writeTestConfig(t, "http://127.0.0.1:0")

	_, _, err := runCLI(t, []string{"runs", "--generation", "gen-1", "--status", "bogus"}, configPath)
	if err == nil {
		t.Fatal("expected unknown status to fail")
	}
	requireContains(t, err.Error(), "unknown status")
}

func TestFleetStatusCommandFiltersAndSummarizes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/infra/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"workers": []map[string]any{
				{"id": "w-1", "hostname": "gpu-1", "status": "online", "queues": []string{"default"}, "concurrency": 4, "pool_size": 4},
				{"id": "w-2", "hostname": "cpu-1", "status": "offline", "queues": []string{"batch"}, "concurrency": 2, "pool_size": 2},
			},
			"total_active_tasks": 3,
			"total_queued_tasks": 9,
			"warnings":           []string{"heartbeat stale for w-2"},
		})
	})
	server := newControlPlane(t, mux)
	configPath := writeTestConfig(t, server.URL)

	out, _, err := runCLI(t, []string{"fleet", "status", "--search", "gpu"}, configPath)
	if err != nil {
		t.Fatalf("fleet status: %v", err)
	}
	requireContains(t, out, "gpu-1")
	requireContains(t, out, "heartbeat stale for w-2")
	requireContains(t, out, "2 workers (1 online, 1 offline)")
	if strings.Contains(out, "cpu-1") {
		t.Fatalf("filtered worker cpu-1 still rendered:\n%s", out)
	}
}

func TestFleetConcurrencyRejectsPoolFloorWithoutDispatch(t *testing.T) {
	var actionCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/infra/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"workers": []map[string]any{
				{"id": "w-1", "hostname": "gpu-1", "status": "online", "pool_size": 1},
			},
		})
	})
	mux.HandleFunc("/infra/workers/", func(w http.ResponseWriter, r *http.Request) {
		actionCalls.Add(1)
	})
	server := newControlPlane(t, mux)
	configPath := writeTestConfig(t, server.URL)

	_, _, err := runCLI(t, []string{"fleet", "concurrency", "w-1", "--delta=-1", "--yes"}, configPath)
	if err == nil {
		t.Fatal("expected pool floor rejection")
	}
	requireContains(t, err.Error(), "pool size must stay above zero")
	if actionCalls.Load() != 0 {
		t.Fatalf("rejected command reached the network %d times", actionCalls.Load())
	}
}

func TestFleetShutdownConfirmsAndJournals(t *testing.T) {
	var actionCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/infra/workers/w-1/action", func(w http.ResponseWriter, r *http.Request) {
		actionCalls.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["action"] != "shutdown" {
			t.Errorf("action = %v, want shutdown", body["action"])
		}
	})
	server := newControlPlane(t, mux)
	configPath := writeTestConfig(t, server.URL)

	// Refusing the prompt must not dispatch anything.
	out, _, err := runCLIWithInput(t, []string{"fleet", "shutdown", "w-1"}, configPath, "n\n")
	if err != nil {
		t.Fatalf("fleet shutdown (refused): %v", err)
	}
	requireContains(t, out, "Aborted.")
	if actionCalls.Load() != 0 {
		t.Fatal("refused command was dispatched")
	}

	out, _, err = runCLIWithInput(t, []string{"fleet", "shutdown", "w-1"}, configPath, "y\n")
	if err != nil {
		t.Fatalf("fleet shutdown: %v", err)
	}
	requireContains(t, out, "dispatched")
	if actionCalls.Load() != 1 {
		t.Fatalf("dispatch count = %d, want 1", actionCalls.Load())
	}

	out, _, err = runCLI(t, []string{"audit", "--limit", "5"}, configPath)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	requireContains(t, out, "w-1")
	requireContains(t, out, "shutdown")
	requireContains(t, out, "ok")
}

func TestConfigInitAndValidate(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init to refuse overwriting")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}
