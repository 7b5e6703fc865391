package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
)

var testLogger = log.New().WithField("test", true)

func TestDBDSN(t *testing.T) {
	tests := map[string]struct {
		dsn      string
		password string
		expected string
	}{
		"no password": {
			dsn:      "postgres://koku@db:5432/koku",
			expected: "postgres://koku@db:5432/koku",
		},
		"url without password": {
			dsn:      "postgres://koku@db:5432/koku?sslmode=disable",
			password: "s3cret",
			expected: "postgres://koku:s3cret@db:5432/koku?sslmode=disable",
		},
		"url with password": {
			dsn:      "postgres://koku:other@db:5432/koku",
			password: "s3cret",
			expected: "postgres://koku:other@db:5432/koku",
		},
		"keyword form": {
			dsn:      "host=db user=koku dbname=koku",
			password: "s3cret",
			expected: "host=db user=koku dbname=koku password=s3cret",
		},
		"keyword form with password": {
			dsn:      "host=db user=koku password=other",
			password: "s3cret",
			expected: "host=db user=koku password=other",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dbDSN(tt.dsn, tt.password))
		})
	}
}

func TestPrestoDSN(t *testing.T) {
	tests := map[string]struct {
		target   string
		expected string
	}{
		"bare": {
			target:   "http://presto:8080",
			expected: "http://pipeline-validator@presto:8080?catalog=hive&schema=org1234567",
		},
		"explicit": {
			target:   "http://me@presto:8080?catalog=other&schema=acct",
			expected: "http://me@presto:8080?catalog=other&schema=acct",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, prestoDSN(tt.target, "hive", "org1234567"))
		})
	}
}

func runContext(t *testing.T, targets []string, publishVia string) config.RunContext {
	t.Helper()
	opts := config.NewOptions()
	opts.Targets = targets
	opts.PublishVia = publishVia
	rc, err := opts.RunContext(time.Now(), []string{"preflight"}, config.Credentials{AWSAccessKeyID: "minio", AWSSecretAccessKey: "minio123"})
	require.NoError(t, err)
	return rc
}

func TestOpenBoundaries(t *testing.T) {
	rc := runContext(t, []string{
		"api=http://koku:8000/api/cost-management/v1",
		"s3=http://minio:9000/koku-bucket/reports",
		"db=postgres://koku@db:5432/koku",
		"presto=http://presto:8080",
		"redis=redis:6379",
	}, config.PublishAuto)

	b, err := openBoundaries(rc, testLogger)
	require.NoError(t, err)
	defer b.Close()

	assert.NotNil(t, b.API)
	assert.NotNil(t, b.Objects)
	assert.NotNil(t, b.DB)
	assert.NotNil(t, b.Query)
	assert.NotNil(t, b.Queue)
	assert.Nil(t, b.Bus, "no kafka target was given")
	assert.Nil(t, b.Cluster, "no kube target was given")
}

func TestNewPublisher(t *testing.T) {
	tests := map[string]struct {
		targets    []string
		publishVia string
		expected   interface{}
	}{
		"auto prefers the object store": {
			targets:    []string{"api=http://koku:8000/api", "s3=s3://bucket", "ingress=http://ingress:8080/upload"},
			publishVia: config.PublishAuto,
			expected:   &publish.ObjectStorePublisher{},
		},
		"auto without object store": {
			targets:    []string{"api=http://koku:8000/api", "ingress=http://ingress:8080/upload"},
			publishVia: config.PublishAuto,
			expected:   &publish.IngressPublisher{},
		},
		"ingress requested": {
			targets:    []string{"api=http://koku:8000/api", "s3=s3://bucket", "ingress=http://ingress:8080/upload"},
			publishVia: config.PublishIngress,
			expected:   &publish.IngressPublisher{},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rc := runContext(t, tt.targets, tt.publishVia)
			b, err := openBoundaries(rc, testLogger)
			require.NoError(t, err)
			defer b.Close()

			p := newPublisher(rc, b, wait.Backoff{Steps: 1}, testLogger)
			assert.IsType(t, tt.expected, p)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	builtin, err := loadCatalog("")
	require.NoError(t, err)
	assert.Contains(t, builtin.Names(), "basic_compute")

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenarios:
  - name: tiny
    durationHours: 1
    expectedTotalCost: "1.00"
    resources:
      - type: compute
        productCode: AmazonEC2
        usageType: BoxUsage:t3.micro
        count: 1
        hourlyRate: "1.00"
`), 0644))
	merged, err := loadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, append(builtin.Names(), "tiny"), merged.Names())

	_, err = loadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, boundary.KindConfig, boundary.KindOf(err))
}

func TestListScenarios(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listScenarios(&buf, scenario.Builtin()))
	assert.Regexp(t, `NAME\s+DURATION\s+EXPECTED TOTAL`, buf.String())
	assert.Regexp(t, `basic_compute\s+24h\s+1000\.00 USD`, buf.String())
}

func TestWriteArtifact(t *testing.T) {
	s, err := scenario.Builtin().Get("basic_compute")
	require.NoError(t, err)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	art, err := generate.NewWithIDs(func() string { return "assembly-1" }).Generate(s, generate.Options{Start: start, AccountID: generate.DefaultAccountID})
	require.NoError(t, err)

	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, writeArtifact(&out, art, dir, "basic", true))

	root := filepath.Join(dir, "basic", "20260301-20260401")
	for _, name := range []string{
		"basic-Manifest.json",
		filepath.Join("assembly-1", "basic-Manifest.json"),
		filepath.Join("assembly-1", "basic-1.csv.gz"),
		filepath.Join("assembly-1", "basic-1.csv"),
	} {
		assert.FileExists(t, filepath.Join(root, name))
	}

	data, err := os.ReadFile(filepath.Join(root, "basic-Manifest.json"))
	require.NoError(t, err)
	var manifest aws.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, "assembly-1", manifest.AssemblyID)
	assert.Equal(t, []string{"basic/20260301-20260401/assembly-1/basic-1.csv.gz"}, manifest.ReportKeys)

	assert.Contains(t, out.String(), "total 1000.00 USD")
}
