// Package profileclient drives retrieval of a public profile from the
// profile API: it owns the loading/success/failed state for one mount,
// bounds every attempt with a cancellation timer, and retries transient
// failures a fixed number of times.
package profileclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/linkplate/backend/internal/models"
)

// State is the retrieval state visible to the consumer.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	// ErrTimeout marks an attempt cancelled by its own timer. Not retried
	// automatically.
	ErrTimeout = errors.New("request timed out, please try again later")
	// ErrNotFound marks a 404. Terminal; retrying will not help.
	ErrNotFound = errors.New("profile not found")
)

// DefaultAttemptTimeout bounds a single fetch attempt.
const DefaultAttemptTimeout = 15 * time.Second

// maxAutoRetries is the number of automatic re-attempts after a transient
// failure. 3 attempts total.
const maxAutoRetries = 2

// Snapshot is one observed state. Attempt is 1-based and increments on every
// automatic retry; a manual retry starts over at 1.
type Snapshot struct {
	State   State
	Attempt int
	Profile *models.Profile
	Err     error
}

// Options tune the loader; the zero value is fine.
type Options struct {
	HTTPClient     *http.Client
	AttemptTimeout time.Duration
}

// Loader fetches one username's profile and reports state transitions
// through the onChange callback. After Stop (or parent context
// cancellation) no further transitions are delivered. onChange must not
// call back into the Loader.
type Loader struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	onChange func(Snapshot)

	mu     sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func New(baseURL, username string, onChange func(Snapshot), opts *Options) *Loader {
	client := http.DefaultClient
	timeout := DefaultAttemptTimeout
	if opts != nil {
		if opts.HTTPClient != nil {
			client = opts.HTTPClient
		}
		if opts.AttemptTimeout > 0 {
			timeout = opts.AttemptTimeout
		}
	}
	return &Loader{
		endpoint: baseURL + "/api/profile/" + url.PathEscape(username),
		client:   client,
		timeout:  timeout,
		onChange: onChange,
	}
}

// Start begins fetching. Calling Start on a running or stopped loader is a
// no-op.
func (l *Loader) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.cancel != nil {
		return
	}
	l.parent = ctx
	l.launchLocked()
}

// Retry is the user-initiated restart: it abandons any in-flight attempt and
// re-enters loading with the attempt counter reset.
func (l *Loader) Retry() {
	l.mu.Lock()
	if l.closed || l.parent == nil {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.launchLocked()
}

// Stop cancels the in-flight request and its timer and guarantees that no
// state change is observed after it returns.
func (l *Loader) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (l *Loader) launchLocked() {
	ctx, cancel := context.WithCancel(l.parent)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go func() {
		defer close(done)
		l.run(ctx)
	}()
}

func (l *Loader) run(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		l.emit(Snapshot{State: StateLoading, Attempt: attempt})

		prof, err := l.fetchOnce(ctx)
		if ctx.Err() != nil {
			// Unmounted mid-flight: suppress, don't report.
			return
		}
		if err == nil {
			l.emit(Snapshot{State: StateSuccess, Attempt: attempt, Profile: prof})
			return
		}
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrNotFound) || attempt > maxAutoRetries {
			l.emit(Snapshot{State: StateFailed, Attempt: attempt, Err: err})
			return
		}
		// Transient: loop re-enters loading with a fresh timer.
	}
}

// fetchOnce runs a single attempt under its own timer.
func (l *Loader) fetchOnce(ctx context.Context) (*models.Profile, error) {
	actx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var prof models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&prof); err != nil {
		return nil, fmt.Errorf("invalid profile body: %w", err)
	}
	if prof.Username == "" {
		return nil, errors.New("empty profile body")
	}
	return &prof, nil
}

func (l *Loader) emit(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.onChange == nil {
		return
	}
	l.onChange(s)
}
