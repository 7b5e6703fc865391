// Package publish delivers generated artifacts to the system under test and
// returns receipts that identify exactly what was delivered.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kube-reporting/pipeline-validator/pkg/generate"
)

const (
	BoundaryObjectStore = "object-store"
	BoundaryIngress     = "ingress"

	nameTimeFormat = "20060102T150405Z"
)

// Target says where an artifact goes.
type Target struct {
	Bucket string
	Prefix string
	// ReportName must be unique per run and scenario; see ReportName.
	ReportName string
	SourceUUID string
	OrgID      string
	// Topic enables a bus announcement after an object store upload.
	Topic string
}

// Receipt is the acknowledgement of a publish.
type Receipt struct {
	// TrackingID is the identifier the boundary handed back: the assembly id
	// for object stores, the request id for the ingress.
	TrackingID string
	// AssemblyID is always the generated batch id recorded by the workers.
	AssemblyID  string
	Boundary    string
	Scenario    string
	ReportName  string
	SourceUUID  string
	Bucket      string
	Keys        []string
	RecordCount int
	AcceptedAt  time.Time
}

// Publisher delivers artifacts.
type Publisher interface {
	Publish(ctx context.Context, art *generate.Artifact, target Target) (Receipt, error)
	// Cleanup removes what Publish created and nothing else.
	Cleanup(ctx context.Context, receipt Receipt) error
}

// ReportName returns a name no other run will produce:
// <scenario>-<UTC timestamp>-<random suffix>.
func ReportName(scenarioName string, now time.Time) string {
	suffix := strings.Replace(uuid.NewString(), "-", "", -1)[:8]
	return fmt.Sprintf("%s-%s-%s", strings.Replace(scenarioName, "_", "-", -1), now.UTC().Format(nameTimeFormat), suffix)
}
