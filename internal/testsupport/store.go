package testsupport

import (
	"testing"

	"loom/internal/audit"
	"loom/internal/config"
)

// MustOpenStore opens an audit.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *audit.Store {
	t.Helper()

	store, err := audit.Open(cfg)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
