// Package report renders the outcome of a run.
package report

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/orchestrator"
)

//go:embed schema.json
var schemaJSON string

var reportSchema = jsonschema.MustCompileString("report.schema.json", schemaJSON)

type Report struct {
	RunID         string     `json:"run_id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	Phases        []Phase    `json:"phases"`
	Scenarios     []Scenario `json:"scenarios"`
	OverallStatus string     `json:"overall_status"`
	ExitCode      int        `json:"exit_code"`
}

type Phase struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	// Duration is in seconds.
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
	Reason   string  `json:"reason,omitempty"`
}

type Scenario struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	TrackingID string  `json:"tracking_id,omitempty"`
	SourceUUID string  `json:"source_uuid,omitempty"`
	Phases     []Phase `json:"phases"`
	Checks     []Check `json:"checks"`
}

type Check struct {
	Name       string  `json:"name"`
	Expected   string  `json:"expected"`
	Actual     string  `json:"actual"`
	Tolerance  float64 `json:"tolerance"`
	Passed     bool    `json:"passed"`
	Diagnostic string  `json:"diagnostic"`
}

// Build converts a run result. The result's own phase and scenario order is
// kept.
func Build(result orchestrator.RunResult) Report {
	r := Report{
		RunID:         result.RunID,
		StartedAt:     result.StartedAt.UTC(),
		FinishedAt:    result.FinishedAt.UTC(),
		Phases:        buildPhases(result.Phases),
		Scenarios:     make([]Scenario, 0, len(result.Scenarios)),
		OverallStatus: string(result.OverallStatus()),
		ExitCode:      result.ExitCode(),
	}
	for _, s := range result.Scenarios {
		sc := Scenario{
			Name:       s.Name,
			Status:     string(s.Status),
			TrackingID: s.TrackingID,
			SourceUUID: s.SourceUUID,
			Phases:     buildPhases(s.Phases),
			Checks:     make([]Check, 0, len(s.Checks)),
		}
		for _, c := range s.Checks {
			sc.Checks = append(sc.Checks, Check{
				Name:       c.Check,
				Expected:   c.Expected,
				Actual:     c.Actual,
				Tolerance:  c.Tolerance,
				Passed:     c.Passed,
				Diagnostic: c.Diagnostic,
			})
		}
		r.Scenarios = append(r.Scenarios, sc)
	}
	return r
}

func buildPhases(phases []orchestrator.PhaseResult) []Phase {
	out := make([]Phase, 0, len(phases))
	for _, p := range phases {
		out = append(out, Phase{
			Name:     string(p.Phase),
			Status:   string(p.Status),
			Duration: seconds(p.Duration),
			Error:    p.ErrorString(),
			Reason:   p.Reason,
		})
	}
	return out
}

// seconds rounds to milliseconds.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

// Render writes r in format.
func Render(w io.Writer, r Report, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case config.FormatJSON:
		out, err = renderJSON(r)
	case config.FormatJUnit:
		out, err = renderJUnit(r)
	case config.FormatText:
		out, err = renderText(r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func renderJSON(r Report) ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Validate checks a JSON report against the report schema.
func Validate(doc []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decoding report: %v", err)
	}
	if err := reportSchema.Validate(v); err != nil {
		return fmt.Errorf("report does not match its schema: %v", err)
	}
	return nil
}

// WriteFile renders r to path, or to stdout when path is empty. Nothing is
// written when rendering fails.
func WriteFile(path string, r Report, format string) error {
	var buf bytes.Buffer
	if err := Render(&buf, r, format); err != nil {
		return err
	}
	if path == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Writer returns an orchestrator.Reporter writing to path in format.
func Writer(path, format string) orchestrator.Reporter {
	return orchestrator.ReporterFunc(func(_ context.Context, result orchestrator.RunResult) error {
		return WriteFile(path, Build(result), format)
	})
}
