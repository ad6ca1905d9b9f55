package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusdash/status"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	steps []func() (Result, error)
	calls int
	gate  chan struct{}
}

func (f *scriptedFetcher) Fetch(ctx context.Context) (Result, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	return f.steps[idx]()
}

func snapshotStep(t *testing.T, doc string) func() (Result, error) {
	t.Helper()
	snap, err := status.Decode([]byte(doc))
	require.NoError(t, err)
	return func() (Result, error) {
		return Result{Snapshot: snap, RequestID: "req", FetchedAt: time.Now()}, nil
	}
}

func errorStep(msg string) func() (Result, error) {
	return func() (Result, error) {
		return Result{RequestID: "req"}, errors.New(msg)
	}
}

func TestQueryLoadTransitions(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){snapshotStep(t, scenarioDoc)}}
	q := NewQuery(f)
	assert.Equal(t, PhaseIdle, q.State().Phase)

	var phases []Phase
	q.Subscribe(func(s State) { phases = append(phases, s.Phase) })

	require.True(t, q.Load(context.Background()))
	assert.Equal(t, []Phase{PhaseLoading, PhaseReady}, phases)

	st := q.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.True(t, st.Changed)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, 3, st.Snapshot.Day)
	assert.NoError(t, st.Err)
}

func TestQueryLoadErrorIsVisible(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){errorStep("connection refused")}}
	q := NewQuery(f)
	q.Load(context.Background())

	st := q.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "connection refused", st.Message())
	assert.Nil(t, st.Snapshot)
}

func TestQueryBackgroundRefreshKeepsReady(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){
		snapshotStep(t, scenarioDoc),
		errorStep("timeout"),
		snapshotStep(t, scenarioDoc),
		snapshotStep(t, `{"day": 4}`),
	}}
	q := NewQuery(f)
	var phases []Phase
	q.Subscribe(func(s State) { phases = append(phases, s.Phase) })
	q.Load(context.Background())

	require.True(t, q.Refresh(context.Background()))
	st := q.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.EqualError(t, st.RefreshErr, "timeout")
	assert.False(t, st.Changed)
	assert.Equal(t, 3, st.Snapshot.Day)

	q.Refresh(context.Background())
	st = q.State()
	assert.False(t, st.Changed, "identical content is not a change")
	assert.NoError(t, st.RefreshErr)

	q.Refresh(context.Background())
	st = q.State()
	assert.True(t, st.Changed)
	assert.Equal(t, 4, st.Snapshot.Day)

	assert.NotContains(t, phases[2:], PhaseLoading, "background refetches never return to loading")
}

func TestQueryRefreshFromErrorRemounts(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){
		errorStep("boom"),
		snapshotStep(t, scenarioDoc),
	}}
	q := NewQuery(f)
	q.Load(context.Background())
	require.Equal(t, PhaseError, q.State().Phase)

	var phases []Phase
	q.Subscribe(func(s State) { phases = append(phases, s.Phase) })
	q.Refresh(context.Background())
	assert.Equal(t, []Phase{PhaseLoading, PhaseReady}, phases)
}

func TestQueryRemountMarksChanged(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){snapshotStep(t, scenarioDoc)}}
	q := NewQuery(f)
	q.Load(context.Background())
	q.Load(context.Background())
	assert.True(t, q.State().Changed, "a remount always re-initialises the view")
}

func TestQuerySingleFetchInFlight(t *testing.T) {
	gate := make(chan struct{})
	f := &scriptedFetcher{gate: gate, steps: []func() (Result, error){snapshotStep(t, scenarioDoc)}}
	q := NewQuery(f)

	done := make(chan bool)
	go func() { done <- q.Load(context.Background()) }()

	require.Eventually(t, func() bool { return q.State().Phase == PhaseLoading }, time.Second, 5*time.Millisecond)
	assert.False(t, q.Load(context.Background()), "second load is skipped while one is in flight")
	assert.False(t, q.Refresh(context.Background()))

	close(gate)
	assert.True(t, <-done)
	f.mu.Lock()
	assert.Equal(t, 1, f.calls)
	f.mu.Unlock()
}

func TestQueryObserverSeesEveryOutcome(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){
		snapshotStep(t, scenarioDoc),
		errorStep("nope"),
	}}
	var outcomes []Outcome
	q := NewQuery(f, WithObserver(func(o Outcome) { outcomes = append(outcomes, o) }))
	q.Load(context.Background())
	q.Refresh(context.Background())

	require.Len(t, outcomes, 2)
	assert.NoError(t, outcomes[0].Err)
	assert.False(t, outcomes[0].Background)
	assert.EqualError(t, outcomes[1].Err, "nope")
	assert.True(t, outcomes[1].Background)
}

func TestQueryPolling(t *testing.T) {
	f := &scriptedFetcher{steps: []func() (Result, error){snapshotStep(t, scenarioDoc)}}
	q := NewQuery(f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.StartPolling(ctx, "@every 1s"))
	assert.Error(t, q.StartPolling(ctx, "@every 1s"))
	require.Eventually(t, func() bool { return q.State().Phase == PhaseReady }, 3*time.Second, 20*time.Millisecond)
	q.Stop()
	q.Stop()
}

func TestQueryPollingRejectsBadSpec(t *testing.T) {
	q := NewQuery(&scriptedFetcher{})
	err := q.StartPolling(context.Background(), "every so often")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid poll schedule")
}
