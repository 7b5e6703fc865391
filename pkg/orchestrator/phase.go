package orchestrator

import (
	"fmt"
	"time"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

type Phase string

const (
	PhasePreflight          Phase = "preflight"
	PhaseMigrations         Phase = "migrations"
	PhaseSourceRegistration Phase = "source_registration"
	PhaseGeneratePublish    Phase = "generate_publish"
	PhaseProcessingTrigger  Phase = "processing_trigger"
	PhaseStateMonitoring    Phase = "state_monitoring"
	PhaseQueryReadiness     Phase = "query_readiness"
	PhaseValidation         Phase = "validation"
	PhaseReporting          Phase = "reporting"
)

// Phases in execution order.
var Phases = []Phase{
	PhasePreflight,
	PhaseMigrations,
	PhaseSourceRegistration,
	PhaseGeneratePublish,
	PhaseProcessingTrigger,
	PhaseStateMonitoring,
	PhaseQueryReadiness,
	PhaseValidation,
	PhaseReporting,
}

var scenarioPhases = []Phase{
	PhaseSourceRegistration,
	PhaseGeneratePublish,
	PhaseProcessingTrigger,
	PhaseStateMonitoring,
	PhaseQueryReadiness,
	PhaseValidation,
}

// dependencies lists, per scenario phase, the phases that must be satisfied
// before it may run.
var dependencies = map[Phase][]Phase{
	PhaseGeneratePublish:   {PhaseSourceRegistration},
	PhaseProcessingTrigger: {PhaseGeneratePublish},
	PhaseStateMonitoring:   {PhaseProcessingTrigger},
	PhaseQueryReadiness:    {PhaseStateMonitoring},
	PhaseValidation:        {PhaseGeneratePublish, PhaseStateMonitoring, PhaseQueryReadiness},
}

// PhaseNames returns the names --skip-phase accepts.
func PhaseNames() []string {
	names := make([]string, 0, len(Phases))
	for _, p := range Phases {
		if p == PhaseReporting {
			continue
		}
		names = append(names, string(p))
	}
	return names
}

type Status string

const (
	StatusPending      Status = "pending"
	StatusRunning      Status = "running"
	StatusPassed       Status = "passed"
	StatusFailed       Status = "failed"
	StatusInconclusive Status = "inconclusive"
	StatusSkipped      Status = "skipped"
)

// Skip reasons.
const (
	SkipRequested     = "skipped by request"
	SkipAborted       = "run aborted"
	SkipNotApplicable = "not applicable"
)

// PhaseResult is the record of one phase.
type PhaseResult struct {
	Phase     Phase
	Status    Status
	StartedAt time.Time
	Duration  time.Duration
	Err       error
	// Reason explains a skip.
	Reason string
	// satisfies is set for skips downstream phases may proceed past.
	satisfies bool
}

func newPhaseResult(p Phase) *PhaseResult {
	return &PhaseResult{Phase: p, Status: StatusPending}
}

// Satisfied reports whether phases depending on this one may run.
func (r *PhaseResult) Satisfied() bool {
	return r.Status == StatusPassed || (r.Status == StatusSkipped && r.satisfies)
}

// Terminal reports whether the phase has finished.
func (r *PhaseResult) Terminal() bool {
	switch r.Status {
	case StatusPassed, StatusFailed, StatusInconclusive, StatusSkipped:
		return true
	}
	return false
}

func (r *PhaseResult) transition(to Status) error {
	if !isAllowedTransition(r.Status, to) {
		return fmt.Errorf("disallowed transition for %s: %s -> %s", r.Phase, r.Status, to)
	}
	r.Status = to
	return nil
}

func isAllowedTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusSkipped
	case StatusRunning:
		return to == StatusPassed || to == StatusFailed || to == StatusInconclusive
	default:
		return false
	}
}

func (r *PhaseResult) skip(reason string, satisfies bool) error {
	if err := r.transition(StatusSkipped); err != nil {
		return err
	}
	r.Reason = reason
	r.satisfies = satisfies
	return nil
}

// finish records the outcome of a running phase.
func (r *PhaseResult) finish(err error, d time.Duration) error {
	r.Duration = d
	r.Err = err
	switch {
	case err == nil:
		return r.transition(StatusPassed)
	case boundary.KindOf(err) == boundary.KindInconclusive:
		return r.transition(StatusInconclusive)
	default:
		return r.transition(StatusFailed)
	}
}

// Infrastructure reports whether a failed phase failed for a reason outside
// the system under test's data handling.
func (r *PhaseResult) Infrastructure() bool {
	if r.Status != StatusFailed {
		return false
	}
	switch boundary.KindOf(r.Err) {
	case boundary.KindTransient, boundary.KindTransport, boundary.KindConfig:
		return true
	}
	return false
}

// ErrorString is the failure message, empty when the phase did not fail.
func (r *PhaseResult) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
