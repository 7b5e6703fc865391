package aws

import (
	"encoding/json"
	"fmt"
	"path"
	"time"
)

const (
	// BillingDateFormat is the layout of the 'yyyymmdd' dates in report paths.
	BillingDateFormat = "20060102"

	// ManifestSuffix is the extension of usage report manifests.
	ManifestSuffix = "-Manifest.json"

	manifestTime = "20060102T000000.000Z"
)

// Manifest describes one delivery of a cost and usage report. The layout
// matches what the ingestion workers read from the bucket.
type Manifest struct {
	AssemblyID             string        `json:"assemblyId"`
	Account                string        `json:"account"`
	Columns                Columns       `json:"columns"`
	Charset                string        `json:"charset"`
	Compression            string        `json:"compression"`
	ContentType            string        `json:"contentType"`
	ReportID               string        `json:"reportId"`
	ReportName             string        `json:"reportName"`
	BillingPeriod          BillingPeriod `json:"billingPeriod"`
	Bucket                 string        `json:"bucket"`
	ReportKeys             []string      `json:"reportKeys"`
	AdditionalArtifactKeys []string      `json:"additionalArtifactKeys"`
}

type BillingPeriod struct {
	Start Time `json:"start"`
	End   Time `json:"end"`
}

// BillingPeriodFor returns the calendar month containing t.
func BillingPeriodFor(t time.Time) BillingPeriod {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return BillingPeriod{
		Start: Time{start},
		End:   Time{start.AddDate(0, 1, 0)},
	}
}

// Dir is the YYYYMMDD-YYYYMMDD directory name for the period.
func (p BillingPeriod) Dir() string {
	return fmt.Sprintf("%s-%s", p.Start.Format(BillingDateFormat), p.End.Format(BillingDateFormat))
}

// Layout computes the object keys of a report delivery:
//
//	<prefix>/<report-name>/<YYYYMMDD-YYYYMMDD>/<report-name>-Manifest.json
//	<prefix>/<report-name>/<YYYYMMDD-YYYYMMDD>/<assemblyId>/<report-name>-Manifest.json
//	<prefix>/<report-name>/<YYYYMMDD-YYYYMMDD>/<assemblyId>/<report-name>-1.csv.gz
type Layout struct {
	Prefix     string
	ReportName string
	Period     BillingPeriod
	AssemblyID string
}

// Root is the prefix every object of the report lives under.
func (l Layout) Root() string {
	return path.Join(l.Prefix, l.ReportName) + "/"
}

func (l Layout) TopManifestKey() string {
	return path.Join(l.Prefix, l.ReportName, l.Period.Dir(), l.ReportName+ManifestSuffix)
}

func (l Layout) AssemblyManifestKey() string {
	return path.Join(l.Prefix, l.ReportName, l.Period.Dir(), l.AssemblyID, l.ReportName+ManifestSuffix)
}

func (l Layout) ReportKey(part int) string {
	return path.Join(l.Prefix, l.ReportName, l.Period.Dir(), l.AssemblyID, fmt.Sprintf("%s-%d.csv.gz", l.ReportName, part))
}

type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	tt, err := time.Parse(manifestTime, s)
	if err == nil {
		*t = Time{tt}
	}
	return err
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(manifestTime))
}

func (t Time) String() string {
	return t.UTC().Format(manifestTime)
}
