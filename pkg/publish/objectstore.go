package publish

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
)

// ObjectStorePublisher writes a cost and usage report delivery into a bucket,
// optionally announcing it on the message bus.
type ObjectStorePublisher struct {
	store   boundary.ObjectStore
	bus     boundary.MessageBus
	clock   clock.Clock
	backoff wait.Backoff
	logger  log.FieldLogger
}

var _ Publisher = (*ObjectStorePublisher)(nil)

// NewObjectStorePublisher creates a publisher. bus may be nil.
func NewObjectStorePublisher(store boundary.ObjectStore, bus boundary.MessageBus, clk clock.Clock, backoff wait.Backoff, logger log.FieldLogger) *ObjectStorePublisher {
	return &ObjectStorePublisher{
		store:   store,
		bus:     bus,
		clock:   clk,
		backoff: backoff,
		logger:  logger.WithField("component", "publisher"),
	}
}

type announcement struct {
	RequestID   string `json:"request_id"`
	SourceUUID  string `json:"source_uuid"`
	OrgID       string `json:"org_id,omitempty"`
	Bucket      string `json:"bucket"`
	ManifestKey string `json:"manifest_key"`
	ReportName  string `json:"report_name"`
	Timestamp   string `json:"timestamp"`
}

// Publish uploads the report file, then the assembly and top level
// manifests, so a manifest never points at data that is not there yet.
func (p *ObjectStorePublisher) Publish(ctx context.Context, art *generate.Artifact, target Target) (Receipt, error) {
	if target.Bucket == "" {
		return Receipt{}, boundary.Config("publish", fmt.Errorf("no bucket configured"))
	}
	if target.ReportName == "" {
		target.ReportName = ReportName(art.Scenario.Name, p.clock.Now())
	}
	layout := aws.Layout{
		Prefix:     target.Prefix,
		ReportName: target.ReportName,
		Period:     aws.BillingPeriodFor(art.Window.Start),
		AssemblyID: art.Manifest.AssemblyID,
	}
	logger := p.logger.WithFields(log.Fields{"scenario": art.Scenario.Name, "report": target.ReportName})

	var existing []string
	err := boundary.Retry(ctx, logger, p.backoff, "list report prefix", func(ctx context.Context) error {
		var err error
		existing, err = p.store.ListKeys(ctx, target.Bucket, layout.Root())
		return err
	})
	if err != nil {
		return Receipt{}, err
	}
	if len(existing) > 0 {
		return Receipt{}, boundary.Logical("publish", fmt.Errorf("report prefix %s already holds %d objects", layout.Root(), len(existing)))
	}

	reportKey := layout.ReportKey(1)
	manifestJSON, err := json.MarshalIndent(NewManifest(art, layout, target.Bucket), "", "  ")
	if err != nil {
		return Receipt{}, boundary.Logical("publish", err)
	}

	receipt := Receipt{
		TrackingID:  art.Manifest.AssemblyID,
		AssemblyID:  art.Manifest.AssemblyID,
		Boundary:    BoundaryObjectStore,
		Scenario:    art.Scenario.Name,
		ReportName:  target.ReportName,
		SourceUUID:  target.SourceUUID,
		Bucket:      target.Bucket,
		RecordCount: art.Manifest.RecordCount,
	}
	uploads := []struct {
		key, contentType string
		body             []byte
	}{
		{reportKey, "application/gzip", art.Report},
		{layout.AssemblyManifestKey(), "application/json", manifestJSON},
		{layout.TopManifestKey(), "application/json", manifestJSON},
	}
	for _, u := range uploads {
		u := u
		err := boundary.Retry(ctx, logger, p.backoff, "put "+u.key, func(ctx context.Context) error {
			return p.store.PutObject(ctx, target.Bucket, u.key, u.body, u.contentType)
		})
		if err != nil {
			// keys already written are still ours to clean up
			return receipt, err
		}
		receipt.Keys = append(receipt.Keys, u.key)
	}
	receipt.AcceptedAt = p.clock.Now().UTC()
	logger.WithField("assemblyID", receipt.AssemblyID).Infof("uploaded %d objects to s3://%s/%s", len(receipt.Keys), target.Bucket, layout.Root())

	if p.bus != nil && target.Topic != "" {
		msg, err := json.Marshal(announcement{
			RequestID:   receipt.AssemblyID,
			SourceUUID:  target.SourceUUID,
			OrgID:       target.OrgID,
			Bucket:      target.Bucket,
			ManifestKey: layout.TopManifestKey(),
			ReportName:  target.ReportName,
			Timestamp:   receipt.AcceptedAt.Format("2006-01-02T15:04:05Z"),
		})
		if err != nil {
			return receipt, boundary.Logical("announce", err)
		}
		err = boundary.Retry(ctx, logger, p.backoff, "announce", func(ctx context.Context) error {
			return p.bus.Publish(ctx, target.Topic, []byte(target.SourceUUID), msg, map[string]string{"service": "hccm"})
		})
		if err != nil {
			return receipt, err
		}
		logger.Debugf("announced report on topic %s", target.Topic)
	}
	return receipt, nil
}

// NewManifest describes art delivered as a single report file at
// layout.ReportKey(1).
func NewManifest(art *generate.Artifact, layout aws.Layout, bucket string) aws.Manifest {
	return aws.Manifest{
		AssemblyID:             art.Manifest.AssemblyID,
		Account:                art.Manifest.AccountID,
		Columns:                art.Manifest.Columns,
		Charset:                "UTF-8",
		Compression:            "GZIP",
		ContentType:            "text/csv",
		ReportID:               art.Manifest.Checksum,
		ReportName:             layout.ReportName,
		BillingPeriod:          layout.Period,
		Bucket:                 bucket,
		ReportKeys:             []string{layout.ReportKey(1)},
		AdditionalArtifactKeys: []string{},
	}
}

// Cleanup deletes every key in the receipt, continuing past failures.
func (p *ObjectStorePublisher) Cleanup(ctx context.Context, receipt Receipt) error {
	var first error
	for _, key := range receipt.Keys {
		key := key
		err := boundary.Retry(ctx, p.logger, p.backoff, "delete "+key, func(ctx context.Context) error {
			return p.store.DeleteObject(ctx, receipt.Bucket, key)
		})
		if err != nil {
			p.logger.WithError(err).Warnf("unable to delete s3://%s/%s", receipt.Bucket, key)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
