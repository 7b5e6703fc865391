// Package monitor waits for a published artifact to be processed.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

type State string

const (
	NotFound   State = "not_found"
	Queued     State = "queued"
	InProgress State = "in_progress"
	Complete   State = "complete"
	Failed     State = "failed"
)

func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

// Snapshot is one observation of processing state. It is never reused
// between polls.
type Snapshot struct {
	State  State
	Detail map[string]string
	// CompletedCount is the number of completed batches the probe can see
	// for the source. It is compared against Correlation.Baseline.
	CompletedCount int64
}

// Correlation identifies the publish being waited on.
type Correlation struct {
	TrackingID      string
	AssemblyID      string
	SourceUUID      string
	ProviderID      int64
	AccountID       string
	Start           time.Time
	End             time.Time
	ExpectedRecords int
	// Baseline is the CompletedCount observed before the publish.
	Baseline int64
}

type Probe interface {
	Name() string
	Probe(ctx context.Context, c Correlation) (Snapshot, error)
}

// PollObserver is notified of every poll outcome.
type PollObserver interface {
	ObservePoll(probe, outcome string)
}

type Result struct {
	Final        Snapshot
	Elapsed      time.Duration
	Polls        int
	Inconclusive bool
	// LastErr is the most recent probe error, if any poll failed.
	LastErr error
}

type Monitor struct {
	probe    Probe
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	logger   log.FieldLogger
	observer PollObserver
}

func New(probe Probe, clk clock.Clock, interval, timeout time.Duration, logger log.FieldLogger) *Monitor {
	return &Monitor{
		probe:    probe,
		clock:    clk,
		interval: interval,
		timeout:  timeout,
		logger:   logger.WithField("probe", probe.Name()),
	}
}

func (m *Monitor) WithObserver(o PollObserver) *Monitor {
	m.observer = o
	return m
}

// Baseline returns the completed count before anything is published.
func (m *Monitor) Baseline(ctx context.Context, c Correlation) (int64, error) {
	snap, err := m.probe.Probe(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("taking %s baseline: %w", m.probe.Name(), err)
	}
	m.logger.Debugf("baseline: %d completed", snap.CompletedCount)
	return snap.CompletedCount, nil
}

// Wait polls at a fixed interval until the probe reports a terminal state
// for c, the timeout elapses, or ctx is done. The last two end with an
// inconclusive in_progress result. A poll still running at the timeout is
// canceled.
func (m *Monitor) Wait(ctx context.Context, c Correlation) Result {
	start := m.clock.Now()
	deadline := start.Add(m.timeout)

	var (
		res     Result
		prevMsg string
	)
	res.Final = Snapshot{State: NotFound}

	for {
		res.Polls++
		snap, err := m.poll(ctx, c, deadline)
		if err != nil && !m.clock.Now().Before(deadline) {
			return m.inconclusive(c, res, start, "timed out")
		}
		if err != nil {
			res.LastErr = err
			m.observe("error")
			m.logger.WithError(err).Warnf("poll %d failed, continuing", res.Polls)
		} else {
			snap = correlate(c, snap)
			res.Final = snap
			m.observe(string(snap.State))

			msg := fmt.Sprintf("%s is %s", c.TrackingID, snap.State)
			if msg != prevMsg {
				m.logger.Info(msg)
				m.logger.Debug(spew.Sprintf("%+v", snap))
			}
			prevMsg = msg

			if snap.State.Terminal() {
				res.Elapsed = m.clock.Since(start)
				return res
			}
		}

		remaining := deadline.Sub(m.clock.Now())
		if remaining <= 0 {
			return m.inconclusive(c, res, start, "timed out")
		}
		wait := m.interval
		if remaining < wait {
			wait = remaining
		}

		timer := m.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return m.inconclusive(c, res, start, ctx.Err().Error())
		case <-timer.C():
		}
		if !m.clock.Now().Before(deadline) {
			return m.inconclusive(c, res, start, "timed out")
		}
	}
}

// poll runs the probe once, canceling it if it is still running when the
// clock reaches deadline.
func (m *Monitor) poll(ctx context.Context, c Correlation, deadline time.Time) (Snapshot, error) {
	pctx, cancel := context.WithCancel(ctx)
	timer := m.clock.NewTimer(deadline.Sub(m.clock.Now()))
	defer func() {
		timer.Stop()
		cancel()
	}()
	go func() {
		select {
		case <-timer.C():
			cancel()
		case <-pctx.Done():
		}
	}()
	return m.probe.Probe(pctx, c)
}

func (m *Monitor) inconclusive(c Correlation, res Result, start time.Time, reason string) Result {
	last := res.Final.State
	res.Final = Snapshot{
		State:          InProgress,
		Detail:         map[string]string{"last_state": string(last), "reason": reason},
		CompletedCount: res.Final.CompletedCount,
	}
	res.Inconclusive = true
	res.Elapsed = m.clock.Since(start)
	m.logger.Warnf("%s still %s after %s (%s)", c.TrackingID, last, res.Elapsed, reason)
	return res
}

func (m *Monitor) observe(outcome string) {
	if m.observer != nil {
		m.observer.ObservePoll(m.probe.Name(), outcome)
	}
}

// correlate refuses a completion that is not attributable to this publish:
// the completed count must have moved past the baseline.
func correlate(c Correlation, snap Snapshot) Snapshot {
	if snap.State != Complete || snap.CompletedCount > c.Baseline {
		return snap
	}
	detail := map[string]string{}
	for k, v := range snap.Detail {
		detail[k] = v
	}
	detail["correlation"] = fmt.Sprintf("completed count %d not above baseline %d", snap.CompletedCount, c.Baseline)
	snap.State = InProgress
	snap.Detail = detail
	return snap
}
