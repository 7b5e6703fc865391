package publish

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
)

// PayloadContentType is the content type the ingress routes to cost
// processing.
const PayloadContentType = "application/vnd.redhat.hccm.filename+tgz"

// IngressPublisher uploads artifacts as a tar.gz payload over HTTP.
type IngressPublisher struct {
	api     boundary.HTTPBoundary
	clock   clock.Clock
	backoff wait.Backoff
	logger  log.FieldLogger
}

var _ Publisher = (*IngressPublisher)(nil)

func NewIngressPublisher(api boundary.HTTPBoundary, clk clock.Clock, backoff wait.Backoff, logger log.FieldLogger) *IngressPublisher {
	return &IngressPublisher{
		api:     api,
		clock:   clk,
		backoff: backoff,
		logger:  logger.WithField("component", "publisher"),
	}
}

type payloadManifest struct {
	UUID        string    `json:"uuid"`
	SourceUUID  string    `json:"source_uuid,omitempty"`
	Scenario    string    `json:"scenario"`
	Date        time.Time `json:"date"`
	Files       []string  `json:"files"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	RecordCount int       `json:"record_count"`
	Checksum    string    `json:"checksum"`
}

func (p *IngressPublisher) Publish(ctx context.Context, art *generate.Artifact, target Target) (Receipt, error) {
	if target.ReportName == "" {
		target.ReportName = ReportName(art.Scenario.Name, p.clock.Now())
	}
	payload, err := buildPayload(art, target)
	if err != nil {
		return Receipt{}, boundary.Logical("build payload", err)
	}
	logger := p.logger.WithFields(log.Fields{"scenario": art.Scenario.Name, "report": target.ReportName})

	var res boundary.UploadResult
	err = boundary.Retry(ctx, logger, p.backoff, "upload", func(ctx context.Context) error {
		var err error
		res, err = p.api.Upload(ctx, target.ReportName+".tar.gz", bytes.NewReader(payload), PayloadContentType)
		return err
	})
	if err != nil {
		return Receipt{}, err
	}
	acceptedAt := res.AcceptedAt
	if acceptedAt.IsZero() {
		acceptedAt = p.clock.Now().UTC()
	}
	logger.WithField("requestID", res.RequestID).Infof("ingress accepted %d byte payload", len(payload))
	return Receipt{
		TrackingID:  res.RequestID,
		AssemblyID:  art.Manifest.AssemblyID,
		Boundary:    BoundaryIngress,
		Scenario:    art.Scenario.Name,
		ReportName:  target.ReportName,
		SourceUUID:  target.SourceUUID,
		RecordCount: art.Manifest.RecordCount,
		AcceptedAt:  acceptedAt,
	}, nil
}

// Cleanup is a no-op: the ingress keeps no object the validator owns.
func (p *IngressPublisher) Cleanup(ctx context.Context, receipt Receipt) error {
	return nil
}

// buildPayload writes manifest.json and the CSV report into a tar.gz. Entry
// timestamps come from the window so the payload is reproducible.
func buildPayload(art *generate.Artifact, target Target) ([]byte, error) {
	csvBody, err := art.CSV()
	if err != nil {
		return nil, err
	}
	csvName := fmt.Sprintf("%s-1.csv", target.ReportName)
	manifest, err := json.MarshalIndent(payloadManifest{
		UUID:        art.Manifest.AssemblyID,
		SourceUUID:  target.SourceUUID,
		Scenario:    art.Scenario.Name,
		Date:        art.Window.End,
		Files:       []string{csvName},
		Start:       art.Window.Start,
		End:         art.Window.End,
		RecordCount: art.Manifest.RecordCount,
		Checksum:    art.Manifest.Checksum,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, f := range []struct {
		name string
		body []byte
	}{
		{"manifest.json", manifest},
		{csvName, csvBody},
	} {
		hdr := &tar.Header{
			Name:    f.name,
			Mode:    0644,
			Size:    int64(len(f.body)),
			ModTime: art.Window.Start,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(f.body); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
