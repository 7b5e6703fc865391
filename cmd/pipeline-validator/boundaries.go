package main

import (
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/costapi"
	"github.com/kube-reporting/pipeline-validator/pkg/db"
	"github.com/kube-reporting/pipeline-validator/pkg/kafka"
	"github.com/kube-reporting/pipeline-validator/pkg/kube"
	"github.com/kube-reporting/pipeline-validator/pkg/presto"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
	"github.com/kube-reporting/pipeline-validator/pkg/queue"
)

// openBoundaries creates a client for every configured target. Nothing is
// contacted here; preflight checks reachability. Clients already created
// are closed when a later one fails.
func openBoundaries(rc config.RunContext, logger log.FieldLogger) (b boundary.Boundaries, err error) {
	defer func() {
		if err != nil {
			b.Close()
			b = boundary.Boundaries{}
		}
	}()
	t := rc.Targets
	logQueries := rc.LogLevel >= log.DebugLevel

	api, err := costapi.New(costapi.Config{
		APIURL:     t.API,
		IngressURL: t.Ingress,
		Token:      rc.Credentials.APIToken,
		OrgID:      rc.OrgID,
	}, logger)
	if err != nil {
		return b, err
	}
	b.API = api

	if t.S3 != nil {
		store, err := aws.NewS3Store(aws.S3Config{
			Endpoint:        t.S3.Endpoint,
			Region:          rc.Credentials.AWSRegion,
			AccessKeyID:     rc.Credentials.AWSAccessKeyID,
			SecretAccessKey: rc.Credentials.AWSSecretAccessKey,
			ForcePathStyle:  t.S3.Endpoint != "",
			DisableSSL:      t.S3.DisableSSL,
		})
		if err != nil {
			return b, err
		}
		b.Objects = store
	}

	if t.DB != "" {
		store, err := db.Open(logger.WithField("component", "db"), dbDSN(t.DB, rc.Credentials.DBPassword), logQueries)
		if err != nil {
			return b, err
		}
		b.DB = store
	}

	if t.Presto != "" {
		client, err := presto.Open(logger, prestoDSN(t.Presto, rc.PrestoCatalog, rc.Schema), logQueries)
		if err != nil {
			return b, err
		}
		b.Query = client
	}

	if len(t.Kafka) > 0 {
		bus, err := kafka.New(kafka.Config{
			Brokers:      t.Kafka,
			ClientID:     rc.Credentials.KafkaClientID,
			WriteTimeout: rc.Credentials.KafkaWriteTimeout,
		})
		if err != nil {
			return b, err
		}
		b.Bus = bus
	}

	if t.Redis != "" {
		inspector, err := queue.New(t.Redis, rc.Credentials.RedisPassword)
		if err != nil {
			return b, err
		}
		b.Queue = inspector
	}

	if t.Kube != "" {
		kubeconfig := t.Kube
		if kubeconfig == config.InCluster {
			kubeconfig = ""
		}
		cluster, err := kube.NewForKubeconfig(kubeconfig, logger.WithField("component", "kube"))
		if err != nil {
			return b, err
		}
		b.Cluster = cluster
	}
	return b, nil
}

// newPublisher picks the object store when one is configured and allowed,
// the ingress otherwise.
func newPublisher(rc config.RunContext, b boundary.Boundaries, backoff wait.Backoff, logger log.FieldLogger) publish.Publisher {
	useObjectStore := rc.PublishVia == config.PublishObjectStore ||
		(rc.PublishVia == config.PublishAuto && b.Objects != nil)
	if useObjectStore {
		logger.Infof("publishing through the object store")
		return publish.NewObjectStorePublisher(b.Objects, b.Bus, clock.RealClock{}, backoff, logger)
	}
	logger.Infof("publishing through the ingress")
	return publish.NewIngressPublisher(b.API, clock.RealClock{}, backoff, logger)
}

// dbDSN sets password on URL style DSNs that carry none.
func dbDSN(dsn, password string) string {
	if password == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		if strings.Contains(dsn, "password=") {
			return dsn
		}
		return dsn + " password=" + password
	}
	if u.User == nil {
		return dsn
	}
	if _, set := u.User.Password(); set {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String()
}

// prestoDSN fills in the catalog and schema unless the target names them.
func prestoDSN(target, catalog, schema string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	if u.User == nil {
		u.User = url.User("pipeline-validator")
	}
	q := u.Query()
	if q.Get("catalog") == "" {
		q.Set("catalog", catalog)
	}
	if q.Get("schema") == "" {
		q.Set("schema", schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
