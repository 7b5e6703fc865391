// Package generate turns a scenario into hourly cost and usage line items
// and a report file whose totals are known exactly.
package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
)

// DefaultAccountID is used when no usage account is configured.
const DefaultAccountID = "999999999999"

// Manifest describes a generated batch.
type Manifest struct {
	AssemblyID  string
	Scenario    string
	AccountID   string
	Start       time.Time
	End         time.Time
	RecordCount int
	// Checksum is the hex sha256 of Report.
	Checksum string
	Columns  aws.Columns
}

// Artifact is the output of one generation.
type Artifact struct {
	Scenario scenario.Scenario
	Window   Window
	Items    []LineItem
	Totals   Totals
	Manifest Manifest
	// Report is the gzipped CSV of Items.
	Report []byte
}

// Options parameterize a generation. Aggregates never depend on them.
type Options struct {
	// Start of the window; truncated to the hour.
	Start time.Time
	// AccountID is written as the payer and usage account.
	AccountID string
}

// Generator produces artifacts. It holds no state between calls and is safe
// for concurrent use.
type Generator struct {
	newID func() string
}

// New returns a generator assigning random assembly ids.
func New() *Generator {
	return &Generator{newID: uuid.NewString}
}

// NewWithIDs returns a generator taking assembly ids from newID.
func NewWithIDs(newID func() string) *Generator {
	return &Generator{newID: newID}
}

// Generate produces one line item per resource instance per active hour. The
// same scenario and options always yield the same items in the same order.
func (g *Generator) Generate(s scenario.Scenario, opts Options) (*Artifact, error) {
	if s.Name == "" {
		return nil, errors.New("scenario has no name")
	}
	if s.DurationHours <= 0 {
		return nil, fmt.Errorf("scenario %s: duration must be positive", s.Name)
	}
	if len(s.Resources) == 0 {
		return nil, fmt.Errorf("scenario %s: no resources to generate", s.Name)
	}
	if opts.Start.IsZero() {
		return nil, fmt.Errorf("scenario %s: window start is required", s.Name)
	}
	accountID := opts.AccountID
	if accountID == "" {
		accountID = DefaultAccountID
	}
	currency := s.Currency
	if currency == "" {
		currency = scenario.DefaultCurrency
	}

	window := WindowFor(opts.Start, s.DurationHours)
	period := aws.BillingPeriodFor(window.Start)
	items := make([]LineItem, 0, s.RecordCount())
	one := decimal.NewFromInt(1)

	for _, r := range s.Resources {
		hours := r.Hours(s.DurationHours)
		for i := 0; i < r.Count; i++ {
			resourceID := resourceID(s.Name, accountID, r, i)
			for h := 0; h < hours; h++ {
				start := window.Start.Add(time.Duration(h) * time.Hour)
				items = append(items, LineItem{
					ID:           lineItemID(resourceID, start),
					AccountID:    accountID,
					ResourceType: r.Type,
					ResourceID:   resourceID,
					ProductCode:  r.ProductCode,
					UsageType:    r.UsageType,
					LineItemType: r.LineItemType,
					Region:       r.Region,
					Unit:         r.Unit,
					Currency:     currency,
					Scenario:     s.Name,
					Start:        start,
					End:          start.Add(time.Hour),
					UsageAmount:  one,
					Rate:         r.HourlyRate,
					Cost:         r.HourlyRate,
					Period:       period,
				})
			}
		}
	}

	totals := Summarize(items)
	if !totals.Cost.Equal(s.ExpectedTotalCost) {
		return nil, fmt.Errorf("scenario %s: generated total %s does not match expected %s", s.Name, totals.Cost, s.ExpectedTotalCost)
	}

	rows := make([][]string, len(items))
	for i, li := range items {
		rows[i] = li.Row(aws.ReportColumns)
	}
	report, err := aws.EncodeReport(aws.ReportColumns, rows)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: encoding report: %v", s.Name, err)
	}
	sum := sha256.Sum256(report)

	return &Artifact{
		Scenario: s,
		Window:   window,
		Items:    items,
		Totals:   totals,
		Report:   report,
		Manifest: Manifest{
			AssemblyID:  g.newID(),
			Scenario:    s.Name,
			AccountID:   accountID,
			Start:       window.Start,
			End:         window.End,
			RecordCount: len(items),
			Checksum:    hex.EncodeToString(sum[:]),
			Columns:     aws.ReportColumns,
		},
	}, nil
}

func resourceID(scenarioName, accountID string, r scenario.Resource, instance int) string {
	prefix := "r"
	switch {
	case strings.HasPrefix(r.UsageType, "BoxUsage"):
		prefix = "i"
	case strings.HasPrefix(r.UsageType, "EBS:"):
		prefix = "vol"
	}
	return fmt.Sprintf("%s-%s", prefix, digest(scenarioName, accountID, r.Type, fmt.Sprint(instance))[:17])
}

func lineItemID(resourceID string, start time.Time) string {
	return digest(resourceID, start.Format(time.RFC3339))[:52]
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "/")))
	return hex.EncodeToString(sum[:])
}

// CSV renders the items as an uncompressed report file.
func (a *Artifact) CSV() ([]byte, error) {
	rows := make([][]string, len(a.Items))
	for i, li := range a.Items {
		rows[i] = li.Row(a.Manifest.Columns)
	}
	return aws.EncodeCSV(a.Manifest.Columns, rows)
}
