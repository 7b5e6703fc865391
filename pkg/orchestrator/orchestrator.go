// Package orchestrator sequences the phases of a validation run.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/db"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/kube"
	"github.com/kube-reporting/pipeline-validator/pkg/metrics"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
	"github.com/kube-reporting/pipeline-validator/pkg/queries"
	"github.com/kube-reporting/pipeline-validator/pkg/queue"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
	"github.com/kube-reporting/pipeline-validator/pkg/validation"
)

const cleanupTimeout = 2 * time.Minute

// Tables that must exist before any data is published.
var (
	publicTables = []string{
		"api_provider",
		"reporting_common_costusagereportmanifest",
		"reporting_common_costusagereportstatus",
	}
	tenantTables = []string{
		"reporting_awscostentrylineitem_daily_summary",
	}
)

// Reporter writes the run report.
type Reporter interface {
	Report(ctx context.Context, result RunResult) error
}

type ReporterFunc func(ctx context.Context, result RunResult) error

func (f ReporterFunc) Report(ctx context.Context, result RunResult) error {
	return f(ctx, result)
}

// Deps are the collaborators of a run.
type Deps struct {
	Boundaries boundary.Boundaries
	Publisher  publish.Publisher
	Generator  *generate.Generator
	Queries    queries.Set
	Engine     *validation.Engine
	Reporter   Reporter
	// Metrics is optional.
	Metrics *metrics.Recorder
	Clock   clock.Clock
	Backoff wait.Backoff
	Logger  log.FieldLogger
}

type Orchestrator struct {
	rc   config.RunContext
	deps Deps

	logger log.FieldLogger
	flight singleflight.Group
}

func New(rc config.RunContext, deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	if deps.Generator == nil {
		deps.Generator = generate.New()
	}
	if deps.Engine == nil {
		deps.Engine = validation.NewEngine(rc.Tolerance)
	}
	if deps.Backoff.Steps == 0 {
		deps.Backoff = boundary.DefaultBackoff
	}
	return &Orchestrator{
		rc:     rc,
		deps:   deps,
		logger: deps.Logger.WithField("run_id", rc.RunID),
	}
}

// Run executes every phase for scenarios and returns the result. It always
// attempts to report, even when the run was aborted or interrupted.
func (o *Orchestrator) Run(ctx context.Context, scenarios []scenario.Scenario) RunResult {
	runCtx, cancel := context.WithTimeout(ctx, o.rc.Timeout)
	defer cancel()

	result := RunResult{
		RunID:     o.rc.RunID,
		StartedAt: o.deps.Clock.Now().UTC(),
	}
	o.logger.Infof("starting run of %d scenarios", len(scenarios))

	preflight := o.runPhase(runCtx, PhasePreflight, o.preflight)
	migrations := newPhaseResult(PhaseMigrations)
	if preflight.Satisfied() {
		migrations = o.runPhase(runCtx, PhaseMigrations, o.migrations)
	} else {
		o.skip(migrations, SkipAborted, false)
	}
	result.Phases = []PhaseResult{*preflight, *migrations}
	result.Aborted = !migrations.Satisfied()

	runs := make([]*scenarioRun, len(scenarios))
	for i, s := range scenarios {
		runs[i] = o.newScenarioRun(s)
	}

	if result.Aborted {
		o.logger.Warn("run aborted, skipping all scenario phases")
		for _, sr := range runs {
			for _, p := range scenarioPhases {
				o.skip(sr.phases[p], SkipAborted, false)
			}
		}
	} else {
		limit := o.rc.Concurrency
		if limit < 1 {
			limit = 1
		}
		var g errgroup.Group
		g.SetLimit(limit)
		for _, sr := range runs {
			sr := sr
			g.Go(func() error {
				o.runScenario(runCtx, sr)
				return nil
			})
		}
		_ = g.Wait()
	}

	o.cleanup(ctx, runs)

	for _, sr := range runs {
		result.Scenarios = append(result.Scenarios, sr.result())
		if o.deps.Metrics != nil {
			o.deps.Metrics.ObserveScenario(string(sr.status()))
		}
	}

	result.Interrupted = ctx.Err() != nil
	result.TimedOut = !result.Interrupted && errors.Is(runCtx.Err(), context.DeadlineExceeded)
	result.FinishedAt = o.deps.Clock.Now().UTC()

	// the report must be written even after an interrupt
	reporting := o.runPhase(context.WithoutCancel(ctx), PhaseReporting, func(ctx context.Context) error {
		return o.report(ctx, result)
	})
	result.Phases = append(result.Phases, *reporting)

	o.logger.WithField("exit_code", result.ExitCode()).Infof("run finished: %s", result.OverallStatus())
	return result
}

func (o *Orchestrator) report(ctx context.Context, result RunResult) error {
	if o.deps.Metrics != nil && o.rc.Pushgateway != "" {
		if err := o.deps.Metrics.Push(ctx, o.rc.Pushgateway, o.rc.RunID); err != nil {
			o.logger.WithError(err).Warn("unable to push metrics")
		}
	}
	if o.deps.Reporter == nil {
		return nil
	}
	if err := o.deps.Reporter.Report(ctx, result); err != nil {
		return boundary.Transport("write report", err)
	}
	return nil
}

// runPhase runs a run-scoped phase on the calling goroutine.
func (o *Orchestrator) runPhase(ctx context.Context, p Phase, fn func(context.Context) error) *PhaseResult {
	pr := newPhaseResult(p)
	if o.rc.Skipped(string(p)) {
		o.skip(pr, SkipRequested, true)
		return pr
	}
	o.execute(ctx, o.logger.WithField("phase", p), pr, fn)
	return pr
}

func (o *Orchestrator) execute(ctx context.Context, logger log.FieldLogger, pr *PhaseResult, fn func(context.Context) error) {
	if err := pr.transition(StatusRunning); err != nil {
		logger.WithError(err).Error("invalid phase state")
		return
	}
	pr.StartedAt = o.deps.Clock.Now().UTC()
	logger.Info("phase started")

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && boundary.KindOf(err) != boundary.KindInconclusive {
		err = boundary.Inconclusive(string(pr.Phase), err)
	}
	if terr := pr.finish(err, o.deps.Clock.Since(pr.StartedAt)); terr != nil {
		logger.WithError(terr).Error("invalid phase state")
	}

	entry := logger.WithField("status", pr.Status).WithField("duration", pr.Duration)
	if err != nil {
		entry.WithError(err).Warn("phase finished")
	} else {
		entry.Info("phase finished")
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.ObservePhase(string(pr.Phase), string(pr.Status), pr.Duration)
	}
}

func (o *Orchestrator) skip(pr *PhaseResult, reason string, satisfies bool) {
	if err := pr.skip(reason, satisfies); err != nil {
		o.logger.WithError(err).Error("invalid phase state")
		return
	}
	o.logger.WithField("phase", pr.Phase).Infof("phase skipped: %s", reason)
	if o.deps.Metrics != nil {
		o.deps.Metrics.ObservePhase(string(pr.Phase), string(pr.Status), 0)
	}
}

func (o *Orchestrator) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	return boundary.Retry(ctx, o.logger, o.deps.Backoff, op, fn)
}

// preflight checks every targeted boundary is reachable.
func (o *Orchestrator) preflight(ctx context.Context) error {
	b := o.deps.Boundaries
	if b.API == nil {
		return boundary.Config("preflight", errors.New("no API boundary configured"))
	}
	if err := o.retry(ctx, "api status", b.API.Status); err != nil {
		return err
	}
	if b.Objects != nil && o.rc.Targets.S3 != nil {
		bucket := o.rc.Targets.S3.Bucket
		err := o.retry(ctx, "head bucket "+bucket, func(ctx context.Context) error {
			return b.Objects.HeadBucket(ctx, bucket)
		})
		if err != nil {
			return err
		}
	}
	if b.DB != nil {
		if err := o.retry(ctx, "database ping", b.DB.Ping); err != nil {
			return err
		}
	}
	if b.Query != nil {
		if err := o.queryLayerReady(ctx); err != nil {
			return err
		}
	}
	if b.Bus != nil {
		if err := o.retry(ctx, "message bus ping", b.Bus.Ping); err != nil {
			return err
		}
	}
	if b.Queue != nil {
		if err := o.retry(ctx, "queue ping", b.Queue.Ping); err != nil {
			return err
		}
	}
	if b.Cluster != nil {
		statuses, err := b.Cluster.PodStatuses(ctx, o.rc.Namespace, o.rc.PodSelector)
		if err != nil {
			return err
		}
		kube.LogSummary(o.logger, statuses)
		if len(statuses) == 0 {
			return boundary.Logical("preflight", fmt.Errorf("no pods match %q in namespace %s", o.rc.PodSelector, o.rc.Namespace))
		}
		if unready := kube.Unready(statuses); len(unready) > 0 {
			return boundary.Logical("preflight", fmt.Errorf("%d of %d pods are not ready", len(unready), len(statuses)))
		}
	}
	return nil
}

// queryLayerReady pings the query layer once for all concurrent callers.
func (o *Orchestrator) queryLayerReady(ctx context.Context) error {
	_, err, _ := o.flight.Do("query-layer", func() (interface{}, error) {
		return nil, o.retry(ctx, "query layer ping", o.deps.Boundaries.Query.Ping)
	})
	return err
}

// migrations checks the schemas the workers write to exist.
func (o *Orchestrator) migrations(ctx context.Context) error {
	store := o.deps.Boundaries.DB
	if store == nil {
		o.logger.Info("no database target, nothing to check")
		return nil
	}
	check := func(schema string, tables []string) error {
		var missing []string
		err := o.retry(ctx, "migration check", func(ctx context.Context) error {
			var err error
			missing, err = db.MissingTables(ctx, store, schema, tables)
			return err
		})
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return boundary.Logical("migration check", fmt.Errorf("schema %s is missing tables %v", schema, missing))
		}
		return nil
	}
	if err := check(o.rc.PublicSchema, publicTables); err != nil {
		return err
	}
	return check(o.rc.Schema, tenantTables)
}

func (o *Orchestrator) cleanup(ctx context.Context, runs []*scenarioRun) {
	if o.rc.RetainArtifacts {
		o.logger.Info("retaining published artifacts and sources")
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, sr := range runs {
		logger := o.logger.WithField("scenario", sr.scenario.Name)
		if sr.receipt != nil && o.deps.Publisher != nil {
			if err := o.deps.Publisher.Cleanup(cctx, *sr.receipt); err != nil {
				logger.WithError(err).Warn("unable to remove published artifact")
			}
		}
		if sr.source != nil {
			if err := o.deps.Boundaries.API.DeleteSource(cctx, sr.source.UUID); err != nil {
				logger.WithError(err).Warnf("unable to delete source %s", sr.source.UUID)
			}
		}
	}
}

// accountID derives a usage account unique to the run and scenario so API
// queries filtered by account only see this run's data.
func accountID(runID, scenarioName string) string {
	sum := sha256.Sum256([]byte(runID + "/" + scenarioName))
	return fmt.Sprintf("%012d", binary.BigEndian.Uint64(sum[:8])%1000000000000)
}

// queuesToWatch are inspected when the deployment exposes its broker.
var queuesToWatch = queue.DefaultQueues
