package orchestrator

import (
	"time"

	"github.com/kube-reporting/pipeline-validator/pkg/validation"
)

// Exit codes of a run.
const (
	ExitPassed         = 0
	ExitFailed         = 1
	ExitInfrastructure = 2
	ExitInterrupted    = 130
)

type ScenarioResult struct {
	Name   string
	Status Status
	Phases []PhaseResult
	Checks []validation.Result
	// TrackingID and SourceUUID correlate the scenario with the system under
	// test; empty when the scenario never got that far.
	TrackingID string
	SourceUUID string
}

type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	// Phases are the run-scoped phases.
	Phases    []PhaseResult
	Scenarios []ScenarioResult

	Aborted     bool
	Interrupted bool
	TimedOut    bool
}

// scenarioStatus folds phase outcomes into one status: any failure fails
// the scenario, otherwise any inconclusive phase makes it inconclusive.
func scenarioStatus(phases []PhaseResult) Status {
	status := StatusPassed
	for _, p := range phases {
		switch p.Status {
		case StatusFailed:
			return StatusFailed
		case StatusInconclusive:
			status = StatusInconclusive
		case StatusSkipped:
			if !p.satisfies && p.Reason == SkipAborted && status == StatusPassed {
				status = StatusSkipped
			}
		}
	}
	return status
}

// OverallStatus is the status of the run as a whole.
func (r RunResult) OverallStatus() Status {
	switch code := r.ExitCode(); code {
	case ExitPassed:
		return StatusPassed
	case ExitFailed:
		for _, s := range r.Scenarios {
			if s.Status == StatusFailed {
				return StatusFailed
			}
		}
		return StatusInconclusive
	case ExitInterrupted:
		return StatusInconclusive
	default:
		return StatusFailed
	}
}

// ExitCode maps the run to the process exit code: interrupted runs exit 130;
// aborted runs and infrastructure failures exit 2; failed checks, data
// handling failures and inconclusive results exit 1.
func (r RunResult) ExitCode() int {
	if r.Interrupted {
		return ExitInterrupted
	}
	if r.Aborted {
		return ExitInfrastructure
	}

	code := ExitPassed
	visit := func(p PhaseResult) {
		switch {
		case p.Infrastructure():
			code = ExitInfrastructure
		case p.Status == StatusFailed || p.Status == StatusInconclusive:
			if code == ExitPassed {
				code = ExitFailed
			}
		}
	}
	for _, p := range r.Phases {
		visit(p)
	}
	for _, s := range r.Scenarios {
		for _, p := range s.Phases {
			visit(p)
		}
	}
	if code == ExitPassed && r.TimedOut {
		code = ExitFailed
	}
	return code
}
