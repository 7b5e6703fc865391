package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

const padding = 2

func renderText(r Report) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Run %s: %s (exit code %d)\n", r.RunID, strings.ToUpper(r.OverallStatus), r.ExitCode)
	fmt.Fprintf(&buf, "Started %s, finished %s\n\n", r.StartedAt.Format(time.RFC3339), r.FinishedAt.Format(time.RFC3339))

	if err := writePhases(&buf, r.Phases); err != nil {
		return nil, err
	}

	for _, s := range r.Scenarios {
		fmt.Fprintf(&buf, "\nScenario %s: %s\n", s.Name, strings.ToUpper(s.Status))
		if s.TrackingID != "" {
			fmt.Fprintf(&buf, "Tracking ID %s, source %s\n", s.TrackingID, s.SourceUUID)
		}
		if err := writePhases(&buf, s.Phases); err != nil {
			return nil, err
		}
		if len(s.Checks) == 0 {
			continue
		}
		buf.WriteString("\n")
		tabWriter := tabwriter.NewWriter(&buf, 0, 8, padding, '\t', 0)
		fmt.Fprintf(tabWriter, "CHECK\tEXPECTED\tACTUAL\tTOLERANCE\tRESULT\tDIAGNOSTIC\n")
		for _, c := range s.Checks {
			result := "pass"
			if !c.Passed {
				result = "FAIL"
			}
			fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Name, c.Expected, c.Actual, percent(c.Tolerance), result, c.Diagnostic)
		}
		if err := tabWriter.Flush(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writePhases(buf *bytes.Buffer, phases []Phase) error {
	tabWriter := tabwriter.NewWriter(buf, 0, 8, padding, '\t', 0)
	fmt.Fprintf(tabWriter, "PHASE\tSTATUS\tDURATION\tDETAIL\n")
	for _, p := range phases {
		detail := p.Error
		if detail == "" {
			detail = p.Reason
		}
		fmt.Fprintf(tabWriter, "%s\t%s\t%.3fs\t%s\n", p.Name, p.Status, p.Duration, firstLine(detail))
	}
	return tabWriter.Flush()
}
