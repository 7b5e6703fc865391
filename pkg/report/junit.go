package report

import (
	"encoding/xml"
	"fmt"
	"strings"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       string          `xml:"time,attr"`
	Properties []junitProperty `xml:"properties>property,omitempty"`
	Cases      []junitCase     `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// renderJUnit emits one suite for the run-scoped phases and one per
// scenario. Phases and checks become test cases; inconclusive phases are
// failures of type "inconclusive".
func renderJUnit(r Report) ([]byte, error) {
	doc := junitSuites{
		Name: "pipeline-validator " + r.RunID,
		Time: secondsAttr(r.FinishedAt.Sub(r.StartedAt).Seconds()),
	}

	run := junitSuite{Name: "run", Properties: []junitProperty{
		{Name: "run_id", Value: r.RunID},
		{Name: "overall_status", Value: r.OverallStatus},
		{Name: "exit_code", Value: fmt.Sprint(r.ExitCode)},
	}}
	addPhaseCases(&run, "run", r.Phases)
	doc.Suites = append(doc.Suites, run)

	for _, s := range r.Scenarios {
		suite := junitSuite{Name: s.Name}
		if s.TrackingID != "" {
			suite.Properties = append(suite.Properties, junitProperty{Name: "tracking_id", Value: s.TrackingID})
		}
		if s.SourceUUID != "" {
			suite.Properties = append(suite.Properties, junitProperty{Name: "source_uuid", Value: s.SourceUUID})
		}
		className := "scenario." + s.Name
		addPhaseCases(&suite, className, s.Phases)
		for _, c := range s.Checks {
			tc := junitCase{Name: "check." + c.Name, ClassName: className, Time: secondsAttr(0)}
			if !c.Passed {
				tc.Failure = &junitFailure{
					Type:    "failed",
					Message: c.Diagnostic,
					Body:    fmt.Sprintf("expected %s, got %s (tolerance %s)", c.Expected, c.Actual, percent(c.Tolerance)),
				}
				suite.Failures++
			}
			suite.Cases = append(suite.Cases, tc)
			suite.Tests++
		}
		doc.Suites = append(doc.Suites, suite)
	}

	for _, s := range doc.Suites {
		doc.Tests += s.Tests
		doc.Failures += s.Failures
		doc.Skipped += s.Skipped
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding junit report: %v", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func addPhaseCases(suite *junitSuite, className string, phases []Phase) {
	var elapsed float64
	for _, p := range phases {
		tc := junitCase{Name: "phase." + p.Name, ClassName: className, Time: secondsAttr(p.Duration)}
		switch p.Status {
		case "failed", "inconclusive":
			tc.Failure = &junitFailure{Type: p.Status, Message: firstLine(p.Error), Body: p.Error}
			suite.Failures++
		case "skipped":
			tc.Skipped = &junitSkipped{Message: p.Reason}
			suite.Skipped++
		}
		elapsed += p.Duration
		suite.Cases = append(suite.Cases, tc)
		suite.Tests++
	}
	suite.Time = secondsAttr(elapsed)
}

func secondsAttr(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

func percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
