package sync

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/waroute/waroute/internal/registry"
	"github.com/waroute/waroute/internal/registry/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTriggerNowInstallsCandidates(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"phoneNumber": "5551234567", "targetUrl": "https://a.example", "description": "from sync"},
			{"phoneNumber": "", "targetUrl": "https://dropped.example"}
		]`))
	}))
	defer source.Close()

	store := memory.New()
	s := New(store, source.URL, time.Minute, testLogger())

	if !s.TriggerNow(context.Background()) {
		t.Fatal("TriggerNow() = false, want true")
	}

	routes, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("route count = %d, want 1 (unusable candidate dropped)", len(routes))
	}
	if !routes[0].Synced || routes[0].TargetURL != "https://a.example" {
		t.Errorf("route = %+v, want synced a.example", routes[0])
	}
}

func TestTriggerNowSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Write([]byte(`[]`))
	}))
	defer source.Close()

	s := New(memory.New(), source.URL, time.Minute, testLogger())

	done := make(chan bool)
	go func() {
		done <- s.TriggerNow(context.Background())
	}()

	<-entered
	// A trigger while the first pass is in flight must be a no-op.
	if s.TriggerNow(context.Background()) {
		t.Error("concurrent TriggerNow() = true, want false")
	}

	close(release)
	if !<-done {
		t.Error("first TriggerNow() = false, want true")
	}

	// After the pass completes, triggering works again.
	if !s.TriggerNow(context.Background()) {
		t.Error("TriggerNow() after completion = false, want true")
	}
}

func TestTriggerNowDisabled(t *testing.T) {
	s := New(memory.New(), "", time.Minute, testLogger())
	if s.Enabled() {
		t.Error("Enabled() = true with empty source URL")
	}
	if s.TriggerNow(context.Background()) {
		t.Error("TriggerNow() = true with sync disabled")
	}
}

func TestSyncSourceFailureKeepsRegistry(t *testing.T) {
	store := memory.New()
	if _, err := store.SyncFromExternal(context.Background(), []registry.Candidate{
		{PhoneNumber: "5551234", TargetURL: "https://keep.example"},
	}); err != nil {
		t.Fatalf("seed sync error = %v", err)
	}

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer source.Close()

	s := New(store, source.URL, time.Minute, testLogger())

	// The pass runs (returns true) but fails; existing routes must survive.
	if !s.TriggerNow(context.Background()) {
		t.Fatal("TriggerNow() = false, want true")
	}

	routes, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(routes) != 1 || routes[0].TargetURL != "https://keep.example" {
		t.Errorf("routes = %+v, want previously synced route preserved", routes)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	var hits atomic.Int32
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer source.Close()

	s := New(memory.New(), source.URL, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}

	if hits.Load() == 0 {
		t.Error("Run() never contacted the sync source")
	}
}
