// Package boundary defines the narrow capability interfaces the validator uses
// to reach the system under test. Each external system gets one interface and
// one concrete implementation per target environment, selected at startup.
package boundary

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock/mock_boundary.go -package=mock . ObjectStore,MessageBus,RelationalStore,QueryService,HTTPBoundary,Cluster,QueueInspector

// Row is a single result row keyed by column name.
type Row map[string]interface{}

// ObjectStore is the put/list side of an S3 compatible bucket.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	HeadBucket(ctx context.Context, bucket string) error
}

// MessageBus publishes announcements to the ingestion bus.
type MessageBus interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
	Ping(ctx context.Context) error
	Close() error
}

// RelationalStore runs read queries against the processing database.
type RelationalStore interface {
	QueryRows(ctx context.Context, query string, args ...interface{}) ([]Row, error)
	Ping(ctx context.Context) error
	Close() error
}

// QueryService runs read queries against the distributed query layer.
type QueryService interface {
	Select(ctx context.Context, query string) ([]Row, error)
	Ping(ctx context.Context) error
	Close() error
}

// HTTPBoundary is the cost management REST API and its upload ingress.
type HTTPBoundary interface {
	Status(ctx context.Context) error
	CreateSource(ctx context.Context, req SourceRequest) (Source, error)
	DeleteSource(ctx context.Context, uuid string) error
	TriggerProcessing(ctx context.Context, sourceUUID string) error
	Costs(ctx context.Context, query CostQuery) (CostSummary, error)
	Upload(ctx context.Context, filename string, body io.Reader, contentType string) (UploadResult, error)
}

// Cluster is the subset of the cluster API used for readiness and exec.
type Cluster interface {
	PodStatuses(ctx context.Context, namespace, selector string) ([]PodStatus, error)
	Exec(ctx context.Context, namespace, pod, container string, command []string) (stdout, stderr string, err error)
}

// QueueInspector reports worker queue depths.
type QueueInspector interface {
	QueueDepth(ctx context.Context, queues []string) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Boundaries bundles the configured implementations. A nil field means the
// corresponding system was not targeted and the checks using it are skipped.
type Boundaries struct {
	Objects ObjectStore
	Bus     MessageBus
	DB      RelationalStore
	Query   QueryService
	API     HTTPBoundary
	Cluster Cluster
	Queue   QueueInspector
}

// Close releases every configured client, returning the first error.
func (b Boundaries) Close() error {
	var first error
	closers := []io.Closer{}
	if b.Bus != nil {
		closers = append(closers, b.Bus)
	}
	if b.DB != nil {
		closers = append(closers, b.DB)
	}
	if b.Query != nil {
		closers = append(closers, b.Query)
	}
	if b.Queue != nil {
		closers = append(closers, b.Queue)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SourceRequest registers a cost source with the API.
type SourceRequest struct {
	Name       string
	SourceType string
	Bucket     string
	Region     string
	ReportName string
	Prefix     string
}

// Source is a registered cost source.
type Source struct {
	UUID string
	ID   int64
	Name string
}

// CostQuery selects a cost report window from the API.
type CostQuery struct {
	Provider string
	Start    time.Time
	End      time.Time
	GroupBy  string
	Filters  map[string]string
}

// CostSummary is the part of a cost report response the validator checks.
type CostSummary struct {
	Total   decimal.Decimal
	Units   string
	Count   int
	ByGroup map[string]decimal.Decimal
}

// UploadResult is the ingress acknowledgement of an upload.
type UploadResult struct {
	RequestID  string
	AcceptedAt time.Time
}

// PodStatus summarizes pod readiness.
type PodStatus struct {
	Name            string
	Phase           string
	Ready           bool
	ReadyContainers int
	TotalContainers int
}
