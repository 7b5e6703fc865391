package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type step struct {
	snap Snapshot
	err  error
}

// scriptedProbe returns its steps in order and repeats the last one.
type scriptedProbe struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (p *scriptedProbe) Name() string { return "scripted" }

func (p *scriptedProbe) Probe(_ context.Context, _ Correlation) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	p.calls++
	return p.steps[i].snap, p.steps[i].err
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *countingObserver) ObservePoll(_, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

// pollGate counts finished polls for runWait.
type pollGate struct {
	next  PollObserver
	mu    sync.Mutex
	polls int
}

func (g *pollGate) ObservePoll(name, outcome string) {
	g.mu.Lock()
	g.polls++
	g.mu.Unlock()
	if g.next != nil {
		g.next.ObservePoll(name, outcome)
	}
}

func (g *pollGate) finished() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.polls
}

// runWait drives the fake clock forward one interval at a time while Wait
// sleeps between polls.
func runWait(t *testing.T, ctx context.Context, m *Monitor, fc *clocktesting.FakeClock, interval time.Duration, c Correlation) Result {
	t.Helper()
	gate := &pollGate{next: m.observer}
	m.observer = gate
	done := make(chan Result, 1)
	go func() { done <- m.Wait(ctx, c) }()

	deadline := time.After(10 * time.Second)
	steps := 0
	for {
		select {
		case res := <-done:
			return res
		case <-deadline:
			t.Fatal("Wait did not return")
		default:
		}
		// only the timer between polls is pending once a poll has finished
		if gate.finished() > steps && fc.HasWaiters() {
			fc.Step(interval)
			steps++
		} else {
			time.Sleep(time.Millisecond)
		}
	}
}

// stall blocks until its context is done.
type stall struct{}

func (stall) Name() string { return "stall" }

func (stall) Probe(ctx context.Context, _ Correlation) (Snapshot, error) {
	<-ctx.Done()
	return Snapshot{}, ctx.Err()
}

func TestWaitTimesOutAsInconclusive(t *testing.T) {
	fc := clocktesting.NewFakeClock(testNow)
	probe := &scriptedProbe{steps: []step{{snap: Snapshot{State: InProgress}}}}
	obs := &countingObserver{outcomes: map[string]int{}}
	m := New(probe, fc, time.Second, 3*time.Second, log.New()).WithObserver(obs)

	res := runWait(t, context.Background(), m, fc, time.Second, Correlation{TrackingID: "abc"})

	assert.Equal(t, InProgress, res.Final.State)
	assert.True(t, res.Inconclusive)
	assert.Equal(t, 3*time.Second, res.Elapsed)
	assert.Equal(t, 3, res.Polls)
	assert.Equal(t, 3, obs.outcomes["in_progress"])
	assert.Equal(t, "timed out", res.Final.Detail["reason"])
}

func TestWaitRequiresCountAboveBaseline(t *testing.T) {
	fc := clocktesting.NewFakeClock(testNow)
	probe := &scriptedProbe{steps: []step{
		// a previous run's batch is complete; ours is not counted yet
		{snap: Snapshot{State: Complete, CompletedCount: 5}},
		{snap: Snapshot{State: Complete, CompletedCount: 5}},
		{snap: Snapshot{State: Complete, CompletedCount: 6}},
	}}
	m := New(probe, fc, time.Second, time.Minute, log.New())

	res := runWait(t, context.Background(), m, fc, time.Second, Correlation{TrackingID: "abc", Baseline: 5})

	assert.Equal(t, Complete, res.Final.State)
	assert.False(t, res.Inconclusive)
	assert.Equal(t, 3, res.Polls)
	assert.Equal(t, 2*time.Second, res.Elapsed)
}

func TestWaitNeverCompletesWithoutNewCount(t *testing.T) {
	fc := clocktesting.NewFakeClock(testNow)
	probe := &scriptedProbe{steps: []step{{snap: Snapshot{State: Complete, CompletedCount: 5}}}}
	m := New(probe, fc, time.Second, 2*time.Second, log.New())

	res := runWait(t, context.Background(), m, fc, time.Second, Correlation{TrackingID: "abc", Baseline: 5})

	assert.True(t, res.Inconclusive)
	assert.Equal(t, InProgress, res.Final.State)
	assert.Equal(t, "in_progress", res.Final.Detail["last_state"])
}

func TestWaitToleratesProbeErrors(t *testing.T) {
	fc := clocktesting.NewFakeClock(testNow)
	probe := &scriptedProbe{steps: []step{
		{err: errors.New("connection reset")},
		{snap: Snapshot{State: Queued}},
		{snap: Snapshot{State: Failed, CompletedCount: 1}},
	}}
	obs := &countingObserver{outcomes: map[string]int{}}
	m := New(probe, fc, time.Second, time.Minute, log.New()).WithObserver(obs)

	res := runWait(t, context.Background(), m, fc, time.Second, Correlation{TrackingID: "abc"})

	assert.Equal(t, Failed, res.Final.State)
	assert.False(t, res.Inconclusive)
	assert.EqualError(t, res.LastErr, "connection reset")
	assert.Equal(t, map[string]int{"error": 1, "queued": 1, "failed": 1}, obs.outcomes)
}

func TestWaitCanceled(t *testing.T) {
	fc := clocktesting.NewFakeClock(testNow)
	probe := &scriptedProbe{steps: []step{{snap: Snapshot{State: NotFound}}}}
	m := New(probe, fc, time.Second, time.Minute, log.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := m.Wait(ctx, Correlation{TrackingID: "abc"})

	assert.True(t, res.Inconclusive)
	assert.Equal(t, InProgress, res.Final.State)
	assert.Equal(t, "not_found", res.Final.Detail["last_state"])
	assert.Equal(t, 1, res.Polls)
}

func TestWaitCancelsAStalledCallAtTimeout(t *testing.T) {
	fc := clocktesting.NewFakeClock(testNow)
	obs := &countingObserver{outcomes: map[string]int{}}
	m := New(stall{}, fc, time.Second, 5*time.Second, log.New()).WithObserver(obs)

	done := make(chan Result, 1)
	go func() { done <- m.Wait(context.Background(), Correlation{TrackingID: "abc"}) }()

	// a step short of the timeout leaves the call running
	require.Eventually(t, fc.HasWaiters, 10*time.Second, time.Millisecond)
	fc.Step(4 * time.Second)
	select {
	case <-done:
		t.Fatal("Wait returned before the timeout")
	case <-time.After(20 * time.Millisecond):
	}

	fc.Step(time.Second)
	var res Result
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Wait did not return")
	}

	assert.True(t, res.Inconclusive)
	assert.Equal(t, InProgress, res.Final.State)
	assert.Equal(t, "timed out", res.Final.Detail["reason"])
	assert.Equal(t, "not_found", res.Final.Detail["last_state"])
	assert.Equal(t, 5*time.Second, res.Elapsed)
	assert.Equal(t, 1, res.Polls)
	assert.NoError(t, res.LastErr)
	assert.Empty(t, obs.outcomes)
}

func TestBaseline(t *testing.T) {
	m := New(&scriptedProbe{steps: []step{{snap: Snapshot{CompletedCount: 9}}}}, clocktesting.NewFakeClock(testNow), time.Second, time.Minute, log.New())
	n, err := m.Baseline(context.Background(), Correlation{})
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	m = New(&scriptedProbe{steps: []step{{err: errors.New("down")}}}, clocktesting.NewFakeClock(testNow), time.Second, time.Minute, log.New())
	_, err = m.Baseline(context.Background(), Correlation{})
	assert.EqualError(t, err, "taking scripted baseline: down")
}
