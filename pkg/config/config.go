// Package config turns flags, environment variables and an optional .env
// file into the immutable RunContext of one run.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
	"github.com/kube-reporting/pipeline-validator/pkg/validation"
)

const EnvPrefix = "VALIDATOR"

// Credential environment variables. They are never flags.
const (
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvAWSRegion          = "AWS_REGION"
	EnvAPIToken           = EnvPrefix + "_API_TOKEN"
	EnvDBPassword         = EnvPrefix + "_DB_PASSWORD"
	EnvKafkaClientID      = EnvPrefix + "_KAFKA_CLIENT_ID"
	EnvKafkaWriteTimeout  = EnvPrefix + "_KAFKA_WRITE_TIMEOUT"
	EnvRedisPassword      = EnvPrefix + "_REDIS_PASSWORD"
)

// Report formats.
const (
	FormatJSON  = "json"
	FormatJUnit = "junit"
	FormatText  = "text"
)

// Publish boundaries selectable with --publish-via.
const (
	PublishAuto        = "auto"
	PublishObjectStore = "object-store"
	PublishIngress     = "ingress"
)

// Options are the raw flag values.
type Options struct {
	Targets         []string      `flag:"target" validate:"min=1"`
	Scenarios       []string      `flag:"scenarios"`
	Timeout         time.Duration `flag:"timeout" validate:"gt=0"`
	Tolerance       float64       `flag:"tolerance" validate:"gt=0,lt=1"`
	SkipPhases      []string      `flag:"skip-phase"`
	ReportFormat    string        `flag:"report-format" validate:"oneof=json junit text"`
	ReportOutput    string        `flag:"report-output"`
	PollInterval    time.Duration `flag:"poll-interval" validate:"gt=0"`
	PollTimeout     time.Duration `flag:"poll-timeout" validate:"gtefield=PollInterval"`
	Concurrency     int           `flag:"concurrency" validate:"min=1,max=64"`
	Namespace       string        `flag:"namespace"`
	RetainArtifacts bool          `flag:"retain-artifacts"`
	CatalogPath     string        `flag:"catalog"`
	WindowStart     string        `flag:"window-start"`
	LogLevel        string        `flag:"log-level" validate:"oneof=panic fatal error warn warning info debug trace"`
	Pushgateway     string        `flag:"pushgateway" validate:"omitempty,url"`
	PublishVia      string        `flag:"publish-via" validate:"oneof=auto object-store ingress"`
	Schema          string        `flag:"schema" validate:"required"`
	PublicSchema    string        `flag:"public-schema" validate:"required"`
	PrestoCatalog   string        `flag:"presto-catalog" validate:"required"`
	OrgID           string        `flag:"org-id"`
	Topic           string        `flag:"announce-topic"`
	PodSelector     string        `flag:"pod-selector"`
	TriggerPod      string        `flag:"trigger-pod"`
	ProcessingWait  time.Duration `flag:"processing-wait" validate:"gte=0"`
	EnvFile         string        `flag:"env-file"`
}

func NewOptions() *Options {
	return &Options{
		Scenarios:     []string{scenario.All},
		Timeout:       30 * time.Minute,
		Tolerance:     validation.DefaultTolerance,
		ReportFormat:  FormatJSON,
		PollInterval:  10 * time.Second,
		PollTimeout:   10 * time.Minute,
		Concurrency:   2,
		Namespace:     "cost-management",
		LogLevel:      log.InfoLevel.String(),
		PublishVia:    PublishAuto,
		Schema:        "org1234567",
		PublicSchema:  "public",
		PrestoCatalog: "hive",
		PodSelector:   "app.kubernetes.io/part-of=cost-management",
		EnvFile:       ".env",
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(&o.Targets, "target", o.Targets, "comma separated key=value boundaries: api=URL,ingress=URL,db=DSN,presto=URL,s3=URL,kafka=host:port[;host:port],redis=host:port,kube=PATH|in-cluster")
	fs.StringSliceVar(&o.Scenarios, "scenarios", o.Scenarios, "scenarios to run, or all")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "hard ceiling for the whole run")
	fs.Float64Var(&o.Tolerance, "tolerance", o.Tolerance, "default relative tolerance for numeric checks")
	fs.StringArrayVar(&o.SkipPhases, "skip-phase", o.SkipPhases, "phase to skip, repeatable")
	fs.StringVar(&o.ReportFormat, "report-format", o.ReportFormat, "report format: json, junit or text")
	fs.StringVar(&o.ReportOutput, "report-output", o.ReportOutput, "report file, stdout when empty")
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "interval between processing state polls")
	fs.DurationVar(&o.PollTimeout, "poll-timeout", o.PollTimeout, "how long to wait for processing per scenario")
	fs.IntVar(&o.Concurrency, "concurrency", o.Concurrency, "scenarios processed in parallel")
	fs.StringVar(&o.Namespace, "namespace", o.Namespace, "namespace of the deployment")
	fs.BoolVar(&o.RetainArtifacts, "retain-artifacts", o.RetainArtifacts, "keep published objects and registered sources after the run")
	fs.StringVar(&o.CatalogPath, "catalog", o.CatalogPath, "YAML scenario catalog merged over the built-in scenarios")
	fs.StringVar(&o.WindowStart, "window-start", o.WindowStart, "start of the usage window (RFC3339 or YYYY-MM-DD), yesterday when empty")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level")
	fs.StringVar(&o.Pushgateway, "pushgateway", o.Pushgateway, "Pushgateway URL to push run metrics to")
	fs.StringVar(&o.PublishVia, "publish-via", o.PublishVia, "publish boundary: auto, object-store or ingress")
	fs.StringVar(&o.Schema, "schema", o.Schema, "tenant schema holding the processed cost tables")
	fs.StringVar(&o.PublicSchema, "public-schema", o.PublicSchema, "schema holding the manifest tables")
	fs.StringVar(&o.PrestoCatalog, "presto-catalog", o.PrestoCatalog, "query layer catalog")
	fs.StringVar(&o.OrgID, "org-id", o.OrgID, "organization id sent to the API")
	fs.StringVar(&o.Topic, "announce-topic", o.Topic, "message bus topic announcing object store uploads, no announcement when empty")
	fs.StringVar(&o.PodSelector, "pod-selector", o.PodSelector, "label selector of the deployment pods checked during preflight")
	fs.StringVar(&o.TriggerPod, "trigger-pod", o.TriggerPod, "pod[/container] to exec the processing trigger in instead of calling the API")
	fs.DurationVar(&o.ProcessingWait, "processing-wait", o.ProcessingWait, "fixed wait after triggering processing")
	fs.StringVar(&o.EnvFile, "env-file", o.EnvFile, "dotenv file loaded before reading the environment")
}

// SetFlagsFromEnv parses all registered flags in the given flagset,
// and if they are not already set it attempts to set their values from
// environment variables. Environment variables take the name of the flag but
// are UPPERCASE, and any dashes are replaced by underscores. Environment
// variables additionally are prefixed by the given string followed by
// and underscore. For example, if prefix=PREFIX: some-flag => PREFIX_SOME_FLAG
func SetFlagsFromEnv(fs *pflag.FlagSet, prefix string) (err error) {
	alreadySet := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		alreadySet[f.Name] = true
	})
	fs.VisitAll(func(f *pflag.Flag) {
		if !alreadySet[f.Name] {
			key := EnvKey(prefix, f.Name)
			val := os.Getenv(key)
			if val != "" {
				if serr := fs.Set(f.Name, val); serr != nil {
					err = fmt.Errorf("invalid value %q for %s: %v", val, key, serr)
				}
			}
		}
	})
	return err
}

func EnvKey(prefix, flagName string) string {
	return prefix + "_" + strings.ToUpper(strings.Replace(flagName, "-", "_", -1))
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %v", path, err)
	}
	return nil
}

// Credentials are secrets read from the environment only.
type Credentials struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	APIToken           string
	DBPassword         string
	KafkaClientID      string
	KafkaWriteTimeout  time.Duration
	RedisPassword      string
}

func LoadCredentials(getenv func(string) string) (Credentials, error) {
	c := Credentials{
		AWSAccessKeyID:     getenv(EnvAWSAccessKeyID),
		AWSSecretAccessKey: getenv(EnvAWSSecretAccessKey),
		AWSRegion:          getenv(EnvAWSRegion),
		APIToken:           getenv(EnvAPIToken),
		DBPassword:         getenv(EnvDBPassword),
		KafkaClientID:      getenv(EnvKafkaClientID),
		RedisPassword:      getenv(EnvRedisPassword),
	}
	if v := getenv(EnvKafkaWriteTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Credentials{}, fmt.Errorf("invalid %s %q: %v", EnvKafkaWriteTimeout, v, err)
		}
		c.KafkaWriteTimeout = d
	}
	return c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return "--" + f.Tag.Get("flag")
	})
	return v
}

// RunContext is the configuration of one run. It is built once and passed
// by value; the skip set is only reachable through Skipped.
type RunContext struct {
	RunID       string
	StartedAt   time.Time
	Targets     Targets
	Credentials Credentials

	Scenarios       []string
	Timeout         time.Duration
	Tolerance       float64
	ReportFormat    string
	ReportOutput    string
	PollInterval    time.Duration
	PollTimeout     time.Duration
	Concurrency     int
	Namespace       string
	RetainArtifacts bool
	CatalogPath     string
	WindowStart     time.Time
	LogLevel        log.Level
	Pushgateway     string
	PublishVia      string
	Schema          string
	PublicSchema    string
	PrestoCatalog   string
	OrgID           string
	Topic           string
	PodSelector     string
	TriggerPod      string
	ProcessingWait  time.Duration

	skip map[string]bool
}

// Skipped reports whether phase was skipped by request.
func (rc RunContext) Skipped(phase string) bool {
	return rc.skip[phase]
}

// SkippedPhases lists the phases skipped by request, sorted.
func (rc RunContext) SkippedPhases() []string {
	phases := make([]string, 0, len(rc.skip))
	for p := range rc.skip {
		phases = append(phases, p)
	}
	sort.Strings(phases)
	return phases
}

// RunContext validates o and builds the run configuration. knownPhases are
// the phase names --skip-phase accepts. Every error is a configuration
// error.
func (o *Options) RunContext(now time.Time, knownPhases []string, creds Credentials) (RunContext, error) {
	if err := validate.Struct(o); err != nil {
		return RunContext{}, boundary.Config("validate options", describe(err))
	}

	targets, err := ParseTargets(o.Targets)
	if err != nil {
		return RunContext{}, boundary.Config("parse --target", err)
	}
	if targets.API == "" {
		return RunContext{}, boundary.Config("parse --target", errors.New("an api target is required"))
	}
	switch o.PublishVia {
	case PublishObjectStore:
		if targets.S3 == nil {
			return RunContext{}, boundary.Config("parse --target", errors.New("--publish-via object-store requires an s3 target"))
		}
	case PublishIngress:
		if targets.Ingress == "" {
			return RunContext{}, boundary.Config("parse --target", errors.New("--publish-via ingress requires an ingress target"))
		}
	default:
		if targets.S3 == nil && targets.Ingress == "" {
			return RunContext{}, boundary.Config("parse --target", errors.New("an s3 or ingress target is required"))
		}
	}

	if err := checkCredentials(targets, creds); err != nil {
		return RunContext{}, boundary.Config("check credentials", err)
	}

	known := map[string]bool{}
	for _, p := range knownPhases {
		known[p] = true
	}
	skip := map[string]bool{}
	for _, p := range o.SkipPhases {
		if !known[p] {
			return RunContext{}, boundary.Config("parse --skip-phase", fmt.Errorf("unknown phase %q (known: %s)", p, strings.Join(knownPhases, ", ")))
		}
		skip[p] = true
	}

	level, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return RunContext{}, boundary.Config("parse --log-level", err)
	}

	start, err := ParseWindowStart(o.WindowStart, now)
	if err != nil {
		return RunContext{}, boundary.Config("parse --window-start", err)
	}

	return RunContext{
		RunID:           uuid.NewString(),
		StartedAt:       now.UTC(),
		Targets:         targets,
		Credentials:     creds,
		Scenarios:       append([]string(nil), o.Scenarios...),
		Timeout:         o.Timeout,
		Tolerance:       o.Tolerance,
		ReportFormat:    o.ReportFormat,
		ReportOutput:    o.ReportOutput,
		PollInterval:    o.PollInterval,
		PollTimeout:     o.PollTimeout,
		Concurrency:     o.Concurrency,
		Namespace:       o.Namespace,
		RetainArtifacts: o.RetainArtifacts,
		CatalogPath:     o.CatalogPath,
		WindowStart:     start,
		LogLevel:        level,
		Pushgateway:     o.Pushgateway,
		PublishVia:      o.PublishVia,
		Schema:          o.Schema,
		PublicSchema:    o.PublicSchema,
		PrestoCatalog:   o.PrestoCatalog,
		OrgID:           o.OrgID,
		Topic:           o.Topic,
		PodSelector:     o.PodSelector,
		TriggerPod:      o.TriggerPod,
		ProcessingWait:  o.ProcessingWait,
		skip:            skip,
	}, nil
}

// checkCredentials rejects static AWS keys given by halves, and a custom
// object store endpoint without static keys.
func checkCredentials(targets Targets, creds Credentials) error {
	hasID, hasSecret := creds.AWSAccessKeyID != "", creds.AWSSecretAccessKey != ""
	switch {
	case hasID && !hasSecret:
		return fmt.Errorf("%s is set without %s", EnvAWSAccessKeyID, EnvAWSSecretAccessKey)
	case hasSecret && !hasID:
		return fmt.Errorf("%s is set without %s", EnvAWSSecretAccessKey, EnvAWSAccessKeyID)
	}
	if targets.S3 != nil && targets.S3.Endpoint != "" && !hasID {
		return fmt.Errorf("s3 endpoint %s needs %s and %s", targets.S3.Endpoint, EnvAWSAccessKeyID, EnvAWSSecretAccessKey)
	}
	return nil
}

// ParseWindowStart accepts RFC3339 or YYYY-MM-DD. Empty means yesterday.
func ParseWindowStart(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return generate.DefaultStart(now), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid window start %q, expected RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
