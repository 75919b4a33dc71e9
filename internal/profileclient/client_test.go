package profileclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/linkplate/backend/internal/models"
)

// recorder collects snapshots and signals when a terminal state lands.
type recorder struct {
	mu       sync.Mutex
	snaps    []Snapshot
	terminal chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{terminal: make(chan Snapshot, 4)}
}

func (r *recorder) onChange(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	if s.State != StateLoading {
		r.terminal <- s
	}
}

func (r *recorder) snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func (r *recorder) waitTerminal(t *testing.T) Snapshot {
	t.Helper()
	select {
	case s := <-r.terminal:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no terminal state observed")
		return Snapshot{}
	}
}

func TestLoaderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Profile{ID: "u1", Username: "ada", DisplayName: "Ada"})
	}))
	defer srv.Close()

	rec := newRecorder()
	l := New(srv.URL, "ada", rec.onChange, nil)
	l.Start(context.Background())
	defer l.Stop()

	final := rec.waitTerminal(t)
	if final.State != StateSuccess {
		t.Fatalf("expected success, got %v (err=%v)", final.State, final.Err)
	}
	if final.Attempt != 1 {
		t.Errorf("success should land on the first attempt, got %d", final.Attempt)
	}
	if final.Profile == nil || final.Profile.Username != "ada" {
		t.Errorf("unexpected profile: %+v", final.Profile)
	}
}

func TestLoaderRetriesTransientTwiceThenFails(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := newRecorder()
	l := New(srv.URL, "ada", rec.onChange, nil)
	l.Start(context.Background())
	defer l.Stop()

	final := rec.waitTerminal(t)
	if final.State != StateFailed {
		t.Fatalf("expected failed, got %v", final.State)
	}
	if final.Attempt != 3 {
		t.Errorf("expected failure on attempt 3, got %d", final.Attempt)
	}

	mu.Lock()
	got := hits
	mu.Unlock()
	if got != 3 {
		t.Errorf("expected exactly 3 requests, got %d", got)
	}

	var loading int
	for _, s := range rec.snapshots() {
		if s.State == StateLoading {
			loading++
		}
	}
	if loading != 3 {
		t.Errorf("expected a loading snapshot per attempt, got %d", loading)
	}
}

func TestLoaderNotFoundFailsWithoutRetry(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec := newRecorder()
	l := New(srv.URL, "ghost", rec.onChange, nil)
	l.Start(context.Background())
	defer l.Stop()

	final := rec.waitTerminal(t)
	if final.State != StateFailed || !errors.Is(final.Err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound failure, got state=%v err=%v", final.State, final.Err)
	}
	if final.Attempt != 1 {
		t.Errorf("404 must not be retried, got attempt %d", final.Attempt)
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("expected a single request, got %d", hits)
	}
}

func TestLoaderTimeoutFailsWithoutRetry(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := newRecorder()
	l := New(srv.URL, "ada", rec.onChange, &Options{AttemptTimeout: 50 * time.Millisecond})
	l.Start(context.Background())
	defer l.Stop()

	final := rec.waitTerminal(t)
	if final.State != StateFailed || !errors.Is(final.Err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout failure, got state=%v err=%v", final.State, final.Err)
	}
	if final.Attempt != 1 {
		t.Errorf("timeout must not be retried, got attempt %d", final.Attempt)
	}
}

func TestLoaderStopSuppressesUpdates(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := newRecorder()
	l := New(srv.URL, "ada", rec.onChange, nil)
	l.Start(context.Background())

	// Let the first attempt get in flight, then abandon it.
	time.Sleep(50 * time.Millisecond)
	l.Stop()

	before := len(rec.snapshots())
	time.Sleep(100 * time.Millisecond)
	after := rec.snapshots()
	if len(after) != before {
		t.Fatalf("snapshots delivered after Stop: %+v", after[before:])
	}
	for _, s := range after {
		if s.State != StateLoading {
			t.Errorf("cancelled fetch must not report an outcome, saw %v", s.State)
		}
	}
}

func TestLoaderManualRetryResetsAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec := newRecorder()
	l := New(srv.URL, "ghost", rec.onChange, nil)
	l.Start(context.Background())
	defer l.Stop()

	first := rec.waitTerminal(t)
	if first.State != StateFailed || first.Attempt != 1 {
		t.Fatalf("unexpected first outcome: %+v", first)
	}

	l.Retry()

	second := rec.waitTerminal(t)
	if second.State != StateFailed {
		t.Fatalf("expected failed after retry, got %v", second.State)
	}
	if second.Attempt != 1 {
		t.Errorf("manual retry must reset the attempt counter, got %d", second.Attempt)
	}
}

func TestLoaderStartAfterStopIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Profile{ID: "u1", Username: "ada"})
	}))
	defer srv.Close()

	rec := newRecorder()
	l := New(srv.URL, "ada", rec.onChange, nil)
	l.Stop()
	l.Start(context.Background())

	time.Sleep(100 * time.Millisecond)
	if n := len(rec.snapshots()); n != 0 {
		t.Fatalf("stopped loader must not run, saw %d snapshots", n)
	}
}
