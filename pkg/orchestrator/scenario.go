package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/monitor"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
	"github.com/kube-reporting/pipeline-validator/pkg/queries"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
	"github.com/kube-reporting/pipeline-validator/pkg/validation"
)

const (
	costProvider    = "aws"
	costGroupBy     = "service"
	defaultRegion   = "us-east-1"
	sourceTypeAWS   = "AWS"
	sourceTypeLocal = "AWS-local"
	triggerBaseURL  = "http://localhost:8000/api/cost-management/v1/download/"
)

// scenarioRun is owned by a single worker.
type scenarioRun struct {
	scenario   scenario.Scenario
	logger     log.FieldLogger
	phases     map[Phase]*PhaseResult
	reportName string
	accountID  string

	source        *boundary.Source
	artifact      *generate.Artifact
	receipt       *publish.Receipt
	correlation   monitor.Correlation
	queryBaseline int64
	checks        []validation.Result
}

func (o *Orchestrator) newScenarioRun(s scenario.Scenario) *scenarioRun {
	sr := &scenarioRun{
		scenario:   s,
		logger:     o.logger.WithField("scenario", s.Name),
		phases:     map[Phase]*PhaseResult{},
		reportName: publish.ReportName(s.Name, o.deps.Clock.Now()),
		accountID:  accountID(o.rc.RunID, s.Name),
	}
	for _, p := range scenarioPhases {
		sr.phases[p] = newPhaseResult(p)
	}
	return sr
}

func (sr *scenarioRun) status() Status {
	phases := make([]PhaseResult, 0, len(scenarioPhases))
	for _, p := range scenarioPhases {
		phases = append(phases, *sr.phases[p])
	}
	return scenarioStatus(phases)
}

func (sr *scenarioRun) result() ScenarioResult {
	res := ScenarioResult{
		Name:   sr.scenario.Name,
		Status: sr.status(),
		Checks: sr.checks,
	}
	for _, p := range scenarioPhases {
		res.Phases = append(res.Phases, *sr.phases[p])
	}
	if sr.receipt != nil {
		res.TrackingID = sr.receipt.TrackingID
	}
	if sr.source != nil {
		res.SourceUUID = sr.source.UUID
	}
	return res
}

// runScenario runs the scenario phases in order. A phase runs only when the
// phases it depends on are satisfied.
func (o *Orchestrator) runScenario(ctx context.Context, sr *scenarioRun) {
	steps := map[Phase]func(context.Context) error{
		PhaseSourceRegistration: func(ctx context.Context) error { return o.registerSource(ctx, sr) },
		PhaseGeneratePublish:    func(ctx context.Context) error { return o.generatePublish(ctx, sr) },
		PhaseProcessingTrigger:  func(ctx context.Context) error { return o.triggerProcessing(ctx, sr) },
		PhaseStateMonitoring:    func(ctx context.Context) error { return o.monitorState(ctx, sr) },
		PhaseQueryReadiness:     func(ctx context.Context) error { return o.waitForQueryLayer(ctx, sr) },
		PhaseValidation:         func(ctx context.Context) error { return o.validate(ctx, sr) },
	}

	for _, p := range scenarioPhases {
		pr := sr.phases[p]
		logger := sr.logger.WithField("phase", p)

		if o.rc.Skipped(string(p)) {
			o.skipScenarioPhase(logger, pr, SkipRequested, true)
			continue
		}
		if blocked := o.blockedBy(sr, p); blocked != "" {
			o.skipScenarioPhase(logger, pr, fmt.Sprintf("dependency %s did not pass", blocked), false)
			continue
		}
		if !o.applies(p) {
			o.skipScenarioPhase(logger, pr, SkipNotApplicable, true)
			continue
		}
		o.execute(ctx, logger, pr, steps[p])
	}
	sr.logger.Infof("scenario finished: %s", sr.status())
}

func (o *Orchestrator) skipScenarioPhase(logger log.FieldLogger, pr *PhaseResult, reason string, satisfies bool) {
	if err := pr.skip(reason, satisfies); err != nil {
		logger.WithError(err).Error("invalid phase state")
		return
	}
	logger.Infof("phase skipped: %s", reason)
	if o.deps.Metrics != nil {
		o.deps.Metrics.ObservePhase(string(pr.Phase), string(pr.Status), 0)
	}
}

func (o *Orchestrator) blockedBy(sr *scenarioRun, p Phase) Phase {
	for _, dep := range dependencies[p] {
		if !sr.phases[dep].Satisfied() {
			return dep
		}
	}
	return ""
}

func (o *Orchestrator) applies(p Phase) bool {
	b := o.deps.Boundaries
	switch p {
	case PhaseStateMonitoring:
		return b.DB != nil || b.Query != nil
	case PhaseQueryReadiness:
		return b.Query != nil
	}
	return true
}

func (o *Orchestrator) registerSource(ctx context.Context, sr *scenarioRun) error {
	req := boundary.SourceRequest{
		Name:       "pipeline-validator-" + sr.reportName,
		SourceType: sourceTypeAWS,
		Region:     o.rc.Credentials.AWSRegion,
		ReportName: sr.reportName,
	}
	if req.Region == "" {
		req.Region = defaultRegion
	}
	if s3 := o.rc.Targets.S3; s3 != nil {
		req.Bucket = s3.Bucket
		req.Prefix = s3.Prefix
		if s3.Endpoint != "" {
			req.SourceType = sourceTypeLocal
		}
	}

	var src boundary.Source
	err := o.retry(ctx, "create source", func(ctx context.Context) error {
		var err error
		src, err = o.deps.Boundaries.API.CreateSource(ctx, req)
		return err
	})
	if err != nil {
		return err
	}
	sr.source = &src
	sr.logger.Infof("registered source %s (%s)", src.UUID, src.Name)
	return nil
}

// stateProbe prefers the manifest tables and falls back to the query layer.
func (o *Orchestrator) stateProbe() monitor.Probe {
	b := o.deps.Boundaries
	var probe monitor.Probe
	switch {
	case b.DB != nil:
		probe = monitor.NewManifestProbe(b.DB, o.deps.Queries, o.rc.PublicSchema)
	case b.Query != nil:
		probe = o.queryLayerProbe()
	default:
		return nil
	}
	if b.Queue != nil {
		probe = monitor.NewQueueProbe(probe, b.Queue, queuesToWatch, o.logger)
	}
	return probe
}

func (o *Orchestrator) queryLayerProbe() monitor.Probe {
	return monitor.NewQueryLayerProbe(o.deps.Boundaries.Query, o.deps.Queries, o.rc.PrestoCatalog, o.rc.Schema)
}

func (o *Orchestrator) newMonitor(probe monitor.Probe, logger log.FieldLogger) *monitor.Monitor {
	m := monitor.New(probe, o.deps.Clock, o.rc.PollInterval, o.rc.PollTimeout, logger)
	if o.deps.Metrics != nil {
		m = m.WithObserver(o.deps.Metrics)
	}
	return m
}

func (o *Orchestrator) baseline(ctx context.Context, probe monitor.Probe, c monitor.Correlation, logger log.FieldLogger) (int64, error) {
	var n int64
	err := o.retry(ctx, probe.Name()+" baseline", func(ctx context.Context) error {
		var err error
		n, err = o.newMonitor(probe, logger).Baseline(ctx, c)
		return err
	})
	return n, err
}

func (o *Orchestrator) generatePublish(ctx context.Context, sr *scenarioRun) error {
	if o.deps.Publisher == nil {
		return boundary.Config("publish", errors.New("no publisher configured"))
	}
	art, err := o.deps.Generator.Generate(sr.scenario, generate.Options{
		Start:     o.rc.WindowStart,
		AccountID: sr.accountID,
	})
	if err != nil {
		return boundary.Config("generate", err)
	}
	sr.artifact = art
	sr.logger.Infof("generated %d line items for %s, total %s", len(art.Items), art.Window, art.Totals.Cost)

	corr := monitor.Correlation{
		AccountID:       sr.accountID,
		Start:           art.Window.Start,
		End:             art.Window.End,
		ExpectedRecords: len(art.Items),
	}
	if sr.source != nil {
		corr.SourceUUID = sr.source.UUID
		corr.ProviderID = sr.source.ID
	}

	// baselines are taken before anything of ours can be counted
	if probe := o.stateProbe(); probe != nil {
		if corr.Baseline, err = o.baseline(ctx, probe, corr, sr.logger); err != nil {
			return err
		}
	}
	if o.deps.Boundaries.Query != nil {
		if sr.queryBaseline, err = o.baseline(ctx, o.queryLayerProbe(), corr, sr.logger); err != nil {
			return err
		}
	}

	target := publish.Target{
		ReportName: sr.reportName,
		SourceUUID: corr.SourceUUID,
		OrgID:      o.rc.OrgID,
		Topic:      o.rc.Topic,
	}
	if s3 := o.rc.Targets.S3; s3 != nil {
		target.Bucket = s3.Bucket
		target.Prefix = s3.Prefix
	}
	receipt, err := o.deps.Publisher.Publish(ctx, art, target)
	if err != nil {
		if len(receipt.Keys) > 0 {
			// a partial upload still leaves objects for cleanup
			sr.receipt = &receipt
		}
		return err
	}
	sr.receipt = &receipt
	corr.TrackingID = receipt.TrackingID
	corr.AssemblyID = receipt.AssemblyID
	sr.correlation = corr
	sr.logger.Infof("published %s via %s, tracking id %s", receipt.ReportName, receipt.Boundary, receipt.TrackingID)
	return nil
}

func (o *Orchestrator) triggerProcessing(ctx context.Context, sr *scenarioRun) error {
	if sr.source == nil {
		return boundary.Config("processing trigger", errors.New("no registered source to trigger"))
	}
	if o.rc.TriggerPod != "" {
		if err := o.execTrigger(ctx, sr); err != nil {
			return err
		}
	} else {
		err := o.retry(ctx, "trigger processing", func(ctx context.Context) error {
			return o.deps.Boundaries.API.TriggerProcessing(ctx, sr.source.UUID)
		})
		if err != nil {
			return err
		}
	}

	if wait := o.rc.ProcessingWait; wait > 0 {
		sr.logger.Infof("waiting %s for processing to start", wait)
		select {
		case <-ctx.Done():
			return boundary.Inconclusive("processing wait", ctx.Err())
		case <-o.deps.Clock.After(wait):
		}
	}
	return nil
}

// execTrigger calls the download endpoint from inside a worker pod, for
// deployments that do not expose it.
func (o *Orchestrator) execTrigger(ctx context.Context, sr *scenarioRun) error {
	cluster := o.deps.Boundaries.Cluster
	if cluster == nil {
		return boundary.Config("processing trigger", errors.New("--trigger-pod requires a kube target"))
	}
	pod, container := o.rc.TriggerPod, ""
	if i := strings.Index(pod, "/"); i >= 0 {
		pod, container = pod[:i], pod[i+1:]
	}
	cmd := []string{"curl", "-sSf", triggerBaseURL + "?provider_uuid=" + sr.source.UUID}
	stdout, stderr, err := cluster.Exec(ctx, o.rc.Namespace, pod, container, cmd)
	if err != nil {
		return fmt.Errorf("triggering processing in %s: %w (stderr: %s)", pod, err, strings.TrimSpace(stderr))
	}
	sr.logger.Debugf("trigger output: %s", strings.TrimSpace(stdout))
	return nil
}

func (o *Orchestrator) monitorState(ctx context.Context, sr *scenarioRun) error {
	if sr.receipt == nil {
		return boundary.Config("state monitoring", errors.New("nothing was published"))
	}
	res := o.newMonitor(o.stateProbe(), sr.logger).Wait(ctx, sr.correlation)
	switch {
	case res.Inconclusive:
		return boundary.Inconclusive("state monitoring",
			fmt.Errorf("%s still %s after %s and %d polls", sr.correlation.TrackingID, res.Final.Detail["last_state"], res.Elapsed, res.Polls))
	case res.Final.State == monitor.Failed:
		return boundary.Logical("state monitoring",
			fmt.Errorf("processing of %s failed: %v", sr.correlation.TrackingID, res.Final.Detail))
	}
	sr.logger.Infof("processing complete after %s", res.Elapsed)
	return nil
}

func (o *Orchestrator) waitForQueryLayer(ctx context.Context, sr *scenarioRun) error {
	if err := o.queryLayerReady(ctx); err != nil {
		return err
	}
	corr := sr.correlation
	corr.Baseline = sr.queryBaseline
	res := o.newMonitor(o.queryLayerProbe(), sr.logger).Wait(ctx, corr)
	if res.Inconclusive {
		return boundary.Inconclusive("query readiness",
			fmt.Errorf("%d of %d rows visible after %s", res.Final.CompletedCount-corr.Baseline, corr.ExpectedRecords, res.Elapsed))
	}
	return nil
}

func (o *Orchestrator) validate(ctx context.Context, sr *scenarioRun) error {
	if sr.artifact == nil {
		return boundary.Config("validation", errors.New("no generated artifact to validate"))
	}
	b := o.deps.Boundaries
	var obs validation.Observation

	if b.DB != nil && sr.source != nil {
		totals, err := o.summaryTotals(ctx, sr)
		if err != nil {
			return err
		}
		obs.Summary = &totals
	}
	if b.Query != nil && sr.phases[PhaseQueryReadiness].Status == StatusPassed {
		totals, err := o.queryLayerTotals(ctx, sr)
		if err != nil {
			return err
		}
		obs.QueryLayer = &totals
	}

	var costs boundary.CostSummary
	err := o.retry(ctx, "cost report", func(ctx context.Context) error {
		var err error
		costs, err = b.API.Costs(ctx, boundary.CostQuery{
			Provider: costProvider,
			Start:    sr.artifact.Window.Start,
			End:      sr.artifact.Window.End,
			GroupBy:  costGroupBy,
			Filters:  map[string]string{"account": sr.accountID},
		})
		return err
	})
	if err != nil {
		return err
	}
	obs.API = &costs

	sr.checks = o.deps.Engine.Evaluate(sr.scenario, sr.artifact.Totals, obs)
	if o.deps.Metrics != nil {
		for _, c := range sr.checks {
			o.deps.Metrics.ObserveCheck(c.Passed)
		}
	}

	failed := validation.Failures(sr.checks)
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, f := range failed {
		names = append(names, f.Check)
	}
	return boundary.Logical("validation", fmt.Errorf("%d of %d checks failed: %s", len(failed), len(sr.checks), strings.Join(names, ", ")))
}

func (o *Orchestrator) summaryTotals(ctx context.Context, sr *scenarioRun) (validation.Totals, error) {
	q, err := o.deps.Queries.Render(queries.SummaryTotals, queries.Params{Schema: o.rc.Schema})
	if err != nil {
		return validation.Totals{}, boundary.Config("render summary totals", err)
	}
	var rows []boundary.Row
	err = o.retry(ctx, "summary totals", func(ctx context.Context) error {
		var err error
		rows, err = o.deps.Boundaries.DB.QueryRows(ctx, q, sr.source.UUID, sr.artifact.Window.Start, sr.artifact.Window.End)
		return err
	})
	if err != nil {
		return validation.Totals{}, err
	}
	return totalsFromRows("summary totals", rows)
}

func (o *Orchestrator) queryLayerTotals(ctx context.Context, sr *scenarioRun) (validation.Totals, error) {
	q, err := o.deps.Queries.Render(queries.QueryLayerTotals, queries.Params{
		Catalog:    o.rc.PrestoCatalog,
		Schema:     o.rc.Schema,
		SourceUUID: sr.correlation.SourceUUID,
		AccountID:  sr.accountID,
		Start:      sr.artifact.Window.Start,
		End:        sr.artifact.Window.End,
	})
	if err != nil {
		return validation.Totals{}, boundary.Config("render query layer totals", err)
	}
	var rows []boundary.Row
	err = o.retry(ctx, "query layer totals", func(ctx context.Context) error {
		var err error
		rows, err = o.deps.Boundaries.Query.Select(ctx, q)
		return err
	})
	if err != nil {
		return validation.Totals{}, err
	}
	return totalsFromRows("query layer totals", rows)
}

func totalsFromRows(op string, rows []boundary.Row) (validation.Totals, error) {
	if len(rows) == 0 {
		return validation.Totals{}, nil
	}
	records, err := monitor.Int64(rows[0]["records"])
	if err != nil {
		return validation.Totals{}, boundary.Logical(op, err)
	}
	total, err := monitor.Decimal(rows[0]["total"])
	if err != nil {
		return validation.Totals{}, boundary.Logical(op, err)
	}
	return validation.Totals{Records: records, Total: total}, nil
}
