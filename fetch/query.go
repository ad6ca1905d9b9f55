package fetch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"statusdash/status"
)

// Phase is the lifecycle of the query: Idle → Loading → Error | Ready.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseError
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "idle"
	}
}

// State is an immutable view of the query handed to subscribers.
type State struct {
	Phase     Phase
	Err       error
	Snapshot  *status.Snapshot
	FetchedAt time.Time
	RequestID string

	// Changed is set when Snapshot differs from the one previously delivered
	// in this mount.
	Changed bool
	// RefreshErr is the last failed background refetch while Ready; the
	// previous snapshot stays visible.
	RefreshErr error
}

// Message is the human-readable error for the Error phase.
func (s State) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Fetcher performs one fetch. *Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (Result, error)
}

// Outcome reports every finished fetch to the observer.
type Outcome struct {
	Result
	Err        error
	Background bool
}

// QueryOption customises a Query.
type QueryOption func(*Query)

// WithObserver registers a callback invoked after every fetch, before
// subscribers see the new state.
func WithObserver(fn func(Outcome)) QueryOption {
	return func(q *Query) { q.observer = fn }
}

// Query is the query client injected into the dashboard: it owns the cached
// snapshot and allows one fetch in flight.
type Query struct {
	fetcher  Fetcher
	observer func(Outcome)

	mu       sync.Mutex
	state    State
	lastHash uint64
	hasHash  bool
	subs     []func(State)

	inflight atomic.Bool

	cronMu sync.Mutex
	cron   *cron.Cron
}

// NewQuery builds an idle query over f.
func NewQuery(f Fetcher, opts ...QueryOption) *Query {
	q := &Query{fetcher: f}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// State returns the current state.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Subscribe registers fn for every state transition. fn runs on the goroutine
// that completed the transition and must not block.
func (q *Query) Subscribe(fn func(State)) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.subs = append(q.subs, fn)
	q.mu.Unlock()
}

// Load is a remount: it drops the cached snapshot, enters Loading and
// fetches. It returns false without doing anything when a fetch is already
// in flight.
func (q *Query) Load(ctx context.Context) bool {
	if !q.inflight.CompareAndSwap(false, true) {
		return false
	}
	defer q.inflight.Store(false)

	q.mu.Lock()
	q.state = State{Phase: PhaseLoading}
	q.hasHash = false
	q.mu.Unlock()
	q.publish()

	q.run(ctx, false)
	return true
}

// Refresh refetches in the background. Ready content stays visible while the
// fetch runs; from any other phase it behaves like Load.
func (q *Query) Refresh(ctx context.Context) bool {
	if q.State().Phase != PhaseReady {
		return q.Load(ctx)
	}
	if !q.inflight.CompareAndSwap(false, true) {
		return false
	}
	defer q.inflight.Store(false)
	q.run(ctx, true)
	return true
}

func (q *Query) run(ctx context.Context, background bool) {
	res, err := q.fetcher.Fetch(ctx)
	if q.observer != nil {
		q.observer(Outcome{Result: res, Err: err, Background: background})
	}

	q.mu.Lock()
	switch {
	case err != nil && background && q.state.Phase == PhaseReady:
		q.state.Changed = false
		q.state.RefreshErr = err
	case err != nil:
		q.state = State{Phase: PhaseError, Err: err, RequestID: res.RequestID}
	default:
		changed := !q.hasHash || res.Snapshot.Hash != q.lastHash
		q.lastHash = res.Snapshot.Hash
		q.hasHash = true
		q.state = State{
			Phase:     PhaseReady,
			Snapshot:  res.Snapshot,
			FetchedAt: res.FetchedAt,
			RequestID: res.RequestID,
			Changed:   changed,
		}
	}
	q.mu.Unlock()
	q.publish()
}

func (q *Query) publish() {
	q.mu.Lock()
	st := q.state
	subs := append(([]func(State))(nil), q.subs...)
	q.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// StartPolling schedules background refetches on a cron spec such as
// "@every 30s". Overlapping runs are skipped.
func (q *Query) StartPolling(ctx context.Context, spec string) error {
	q.cronMu.Lock()
	defer q.cronMu.Unlock()
	if q.cron != nil {
		return fmt.Errorf("fetch: polling already started")
	}
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		q.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("fetch: invalid poll schedule %q: %w", spec, err)
	}
	c.Start()
	q.cron = c
	return nil
}

// Stop halts polling and waits for a running refetch to return.
func (q *Query) Stop() {
	q.cronMu.Lock()
	c := q.cron
	q.cron = nil
	q.cronMu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
