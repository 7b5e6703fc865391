package orchestrator

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/boundary/mock"
	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/metrics"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
	"github.com/kube-reporting/pipeline-validator/pkg/queries"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
	"github.com/kube-reporting/pipeline-validator/pkg/validation"
)

var testBackoff = wait.Backoff{Duration: time.Millisecond, Factor: 1, Steps: 2}

func runContext(t *testing.T, mutate func(o *config.Options)) config.RunContext {
	t.Helper()
	o := config.NewOptions()
	o.Targets = []string{"api=http://koku:8000/api/cost-management/v1", "s3=http://minio:9000/bucket/cur"}
	o.PollInterval = 10 * time.Millisecond
	o.PollTimeout = 50 * time.Millisecond
	o.Timeout = time.Minute
	if mutate != nil {
		mutate(o)
	}
	rc, err := o.RunContext(time.Now(), PhaseNames(), config.Credentials{AWSAccessKeyID: "minio", AWSSecretAccessKey: "minio123"})
	require.NoError(t, err)
	return rc
}

func scenarios(t *testing.T, names ...string) []scenario.Scenario {
	t.Helper()
	selected, err := scenario.Builtin().Select(names)
	require.NoError(t, err)
	return selected
}

type capturingReporter struct {
	mu      sync.Mutex
	results []RunResult
}

func (r *capturingReporter) Report(_ context.Context, result RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

// expectAPI wires the API mock to the fake deployment.
func expectAPI(api *mock.MockHTTPBoundary, fd *fakeDeployment, sources int) {
	api.EXPECT().Status(gomock.Any()).Return(nil)
	api.EXPECT().CreateSource(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req boundary.SourceRequest) (boundary.Source, error) {
			return fd.register(req), nil
		}).Times(sources)
	api.EXPECT().TriggerProcessing(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	api.EXPECT().Costs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q boundary.CostQuery) (boundary.CostSummary, error) {
			return fd.costs(q), nil
		}).AnyTimes()
	api.EXPECT().DeleteSource(gomock.Any(), gomock.Any()).Return(nil).Times(sources)
}

func newTestOrchestrator(rc config.RunContext, api boundary.HTTPBoundary, fd *fakeDeployment, reporter Reporter, rec *metrics.Recorder) *Orchestrator {
	return New(rc, Deps{
		Boundaries: boundary.Boundaries{API: api, DB: fd},
		Publisher:  fd,
		Queries:    queries.Defaults(),
		Engine:     validation.NewEngine(rc.Tolerance),
		Reporter:   reporter,
		Metrics:    rec,
		Backoff:    testBackoff,
		Logger:     log.New(),
	})
}

func phaseStatuses(phases []PhaseResult) map[Phase]Status {
	out := map[Phase]Status{}
	for _, p := range phases {
		out[p.Phase] = p.Status
	}
	return out
}

func TestRunPassesBasicCompute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	api := mock.NewMockHTTPBoundary(ctrl)
	expectAPI(api, fd, 1)
	reporter := &capturingReporter{}
	rec := metrics.New()

	rc := runContext(t, nil)
	result := newTestOrchestrator(rc, api, fd, reporter, rec).Run(context.Background(), scenarios(t, "basic_compute"))

	assert.Equal(t, ExitPassed, result.ExitCode())
	assert.Equal(t, StatusPassed, result.OverallStatus())
	assert.Equal(t, rc.RunID, result.RunID)
	assert.False(t, result.Aborted)
	assert.Equal(t, map[Phase]Status{
		PhasePreflight:  StatusPassed,
		PhaseMigrations: StatusPassed,
		PhaseReporting:  StatusPassed,
	}, phaseStatuses(result.Phases))

	require.Len(t, result.Scenarios, 1)
	sc := result.Scenarios[0]
	assert.Equal(t, "basic_compute", sc.Name)
	assert.Equal(t, StatusPassed, sc.Status)
	assert.Equal(t, "source-1", sc.SourceUUID)
	assert.NotEmpty(t, sc.TrackingID)
	assert.Equal(t, map[Phase]Status{
		PhaseSourceRegistration: StatusPassed,
		PhaseGeneratePublish:    StatusPassed,
		PhaseProcessingTrigger:  StatusPassed,
		PhaseStateMonitoring:    StatusPassed,
		PhaseQueryReadiness:     StatusSkipped,
		PhaseValidation:         StatusPassed,
	}, phaseStatuses(sc.Phases))
	assert.Len(t, sc.Checks, 9)
	assert.True(t, validation.Passed(sc.Checks))

	// the report sees every phase but its own
	require.Len(t, reporter.results, 1)
	assert.Len(t, reporter.results[0].Phases, 2)
	assert.Equal(t, []string{"basic_compute"}, fd.cleaned)

	n, err := testutil.GatherAndCount(rec.Registry(), "pipeline_validator_checks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunAbortsOnPreflightFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	api := mock.NewMockHTTPBoundary(ctrl)
	api.EXPECT().Status(gomock.Any()).Return(boundary.Transport("api status", errors.New("401 unauthorized")))
	reporter := &capturingReporter{}

	result := newTestOrchestrator(runContext(t, nil), api, fd, reporter, nil).Run(context.Background(), scenarios(t, "basic_compute", "zero_cost"))

	assert.True(t, result.Aborted)
	assert.Equal(t, ExitInfrastructure, result.ExitCode())
	assert.Equal(t, StatusFailed, result.OverallStatus())
	assert.Equal(t, map[Phase]Status{
		PhasePreflight:  StatusFailed,
		PhaseMigrations: StatusSkipped,
		PhaseReporting:  StatusPassed,
	}, phaseStatuses(result.Phases))
	assert.Equal(t, "api status: 401 unauthorized", result.Phases[0].ErrorString())

	for _, sc := range result.Scenarios {
		assert.Equal(t, StatusSkipped, sc.Status)
		for _, p := range sc.Phases {
			assert.Equal(t, StatusSkipped, p.Status)
			assert.Equal(t, SkipAborted, p.Reason)
		}
	}
	assert.Len(t, reporter.results, 1)
	assert.Empty(t, fd.cleaned)
}

func TestScenarioFailureDoesNotStopSiblings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	fd.publishErr["zero_cost"] = boundary.Logical("upload", errors.New("payload rejected"))
	api := mock.NewMockHTTPBoundary(ctrl)
	expectAPI(api, fd, 2)

	result := newTestOrchestrator(runContext(t, nil), api, fd, &capturingReporter{}, nil).Run(context.Background(), scenarios(t, "basic_compute", "zero_cost"))

	assert.Equal(t, ExitFailed, result.ExitCode())
	assert.Equal(t, StatusFailed, result.OverallStatus())
	require.Len(t, result.Scenarios, 2)

	basic, zero := result.Scenarios[0], result.Scenarios[1]
	assert.Equal(t, StatusPassed, basic.Status)
	assert.Equal(t, StatusFailed, zero.Status)

	statuses := phaseStatuses(zero.Phases)
	assert.Equal(t, StatusPassed, statuses[PhaseSourceRegistration])
	assert.Equal(t, StatusFailed, statuses[PhaseGeneratePublish])
	for _, p := range zero.Phases[2:] {
		assert.Equal(t, StatusSkipped, p.Status, p.Phase)
	}
	assert.Equal(t, "dependency generate_publish did not pass", zero.Phases[2].Reason)
	assert.Equal(t, []string{"basic_compute"}, fd.cleaned)
}

func TestRequestedSkipSatisfiesDependents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	api := mock.NewMockHTTPBoundary(ctrl)
	expectAPI(api, fd, 1)

	rc := runContext(t, func(o *config.Options) {
		o.SkipPhases = []string{string(PhaseStateMonitoring), string(PhaseMigrations)}
	})
	result := newTestOrchestrator(rc, api, fd, nil, nil).Run(context.Background(), scenarios(t, "basic_compute"))

	assert.Equal(t, ExitPassed, result.ExitCode())
	assert.Equal(t, SkipRequested, result.Phases[1].Reason)
	sc := result.Scenarios[0]
	statuses := phaseStatuses(sc.Phases)
	assert.Equal(t, StatusSkipped, statuses[PhaseStateMonitoring])
	assert.Equal(t, StatusPassed, statuses[PhaseValidation])
	assert.Equal(t, StatusPassed, sc.Status)
}

func TestValidationFailureExitsOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	fd.apiSkew = decimal106()
	api := mock.NewMockHTTPBoundary(ctrl)
	expectAPI(api, fd, 1)

	result := newTestOrchestrator(runContext(t, nil), api, fd, nil, nil).Run(context.Background(), scenarios(t, "basic_compute"))

	assert.Equal(t, ExitFailed, result.ExitCode())
	assert.Equal(t, StatusFailed, result.OverallStatus())
	sc := result.Scenarios[0]
	assert.Equal(t, StatusFailed, sc.Status)

	var failed []string
	for _, c := range validation.Failures(sc.Checks) {
		failed = append(failed, c.Check)
	}
	assert.Equal(t, []string{"api.total", "api.breakdown.compute", "api.breakdown.storage"}, failed)
	assert.Regexp(t, regexp.MustCompile(`^validation: 3 of 9 checks failed: api.total, `), phaseErr(sc, PhaseValidation))
}

func TestMonitoringTimeoutIsInconclusive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	fd.stuck = true
	api := mock.NewMockHTTPBoundary(ctrl)
	expectAPI(api, fd, 1)

	result := newTestOrchestrator(runContext(t, nil), api, fd, nil, nil).Run(context.Background(), scenarios(t, "basic_compute"))

	assert.Equal(t, ExitFailed, result.ExitCode())
	assert.Equal(t, StatusInconclusive, result.OverallStatus())
	sc := result.Scenarios[0]
	assert.Equal(t, StatusInconclusive, sc.Status)
	statuses := phaseStatuses(sc.Phases)
	assert.Equal(t, StatusInconclusive, statuses[PhaseStateMonitoring])
	assert.Equal(t, StatusSkipped, statuses[PhaseValidation])
	assert.Contains(t, phaseErr(sc, PhaseStateMonitoring), "still queued")
	assert.Equal(t, []string{"basic_compute"}, fd.cleaned)
}

func TestRunTimeoutStillReports(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	fd.stuck = true
	api := mock.NewMockHTTPBoundary(ctrl)
	expectAPI(api, fd, 1)
	reporter := &capturingReporter{}

	rc := runContext(t, func(o *config.Options) {
		o.Timeout = 300 * time.Millisecond
		o.PollTimeout = time.Minute
	})
	result := newTestOrchestrator(rc, api, fd, reporter, nil).Run(context.Background(), scenarios(t, "basic_compute"))

	assert.True(t, result.TimedOut)
	assert.False(t, result.Interrupted)
	assert.Equal(t, ExitFailed, result.ExitCode())
	sc := result.Scenarios[0]
	statuses := phaseStatuses(sc.Phases)
	assert.Equal(t, StatusInconclusive, statuses[PhaseStateMonitoring])
	assert.Equal(t, StatusSkipped, statuses[PhaseValidation])
	assert.Equal(t, StatusPassed, phaseStatuses(result.Phases)[PhaseReporting])
	require.Len(t, reporter.results, 1)
	assert.True(t, reporter.results[0].TimedOut)
	assert.Equal(t, []string{"basic_compute"}, fd.cleaned)
}

func TestPartialPublishIsCleanedUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	api := mock.NewMockHTTPBoundary(ctrl)
	api.EXPECT().Status(gomock.Any()).Return(nil)
	api.EXPECT().CreateSource(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req boundary.SourceRequest) (boundary.Source, error) {
			return fd.register(req), nil
		})
	api.EXPECT().DeleteSource(gomock.Any(), "source-1").Return(nil)

	var written, deleted []string
	store := mock.NewMockObjectStore(ctrl)
	gomock.InOrder(
		store.EXPECT().HeadBucket(gomock.Any(), "bucket").Return(nil),
		store.EXPECT().ListKeys(gomock.Any(), "bucket", gomock.Any()).Return(nil, nil),
		store.EXPECT().PutObject(gomock.Any(), "bucket", gomock.Any(), gomock.Any(), "application/gzip").
			DoAndReturn(func(_ context.Context, _, key string, _ []byte, _ string) error {
				written = append(written, key)
				return nil
			}),
		store.EXPECT().PutObject(gomock.Any(), "bucket", gomock.Any(), gomock.Any(), "application/json").
			Return(boundary.Transport("put", errors.New("403 AccessDenied"))),
		store.EXPECT().DeleteObject(gomock.Any(), "bucket", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, key string) error {
				deleted = append(deleted, key)
				return nil
			}),
	)

	rc := runContext(t, nil)
	o := New(rc, Deps{
		Boundaries: boundary.Boundaries{API: api, DB: fd, Objects: store},
		Publisher:  publish.NewObjectStorePublisher(store, nil, clock.RealClock{}, testBackoff, log.New()),
		Queries:    queries.Defaults(),
		Engine:     validation.NewEngine(rc.Tolerance),
		Backoff:    testBackoff,
		Logger:     log.New(),
	})
	result := o.Run(context.Background(), scenarios(t, "basic_compute"))

	assert.Equal(t, ExitInfrastructure, result.ExitCode())
	sc := result.Scenarios[0]
	assert.Equal(t, StatusFailed, phaseStatuses(sc.Phases)[PhaseGeneratePublish])
	assert.Contains(t, phaseErr(sc, PhaseGeneratePublish), "403 AccessDenied")
	require.Len(t, written, 1)
	assert.Equal(t, written, deleted)
}

func TestRetainedArtifactsAreKept(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	api := mock.NewMockHTTPBoundary(ctrl)
	api.EXPECT().Status(gomock.Any()).Return(nil)
	api.EXPECT().CreateSource(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req boundary.SourceRequest) (boundary.Source, error) {
			return fd.register(req), nil
		})
	api.EXPECT().TriggerProcessing(gomock.Any(), "source-1").Return(nil)
	api.EXPECT().Costs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q boundary.CostQuery) (boundary.CostSummary, error) {
			return fd.costs(q), nil
		})

	rc := runContext(t, func(o *config.Options) { o.RetainArtifacts = true })
	result := newTestOrchestrator(rc, api, fd, nil, nil).Run(context.Background(), scenarios(t, "basic_compute"))

	assert.Equal(t, ExitPassed, result.ExitCode())
	assert.Empty(t, fd.cleaned)
}

func TestInterruptedRunStillReports(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fd := newFakeDeployment()
	api := mock.NewMockHTTPBoundary(ctrl)
	api.EXPECT().Status(gomock.Any()).Return(context.Canceled).AnyTimes()
	reporter := &capturingReporter{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := newTestOrchestrator(runContext(t, nil), api, fd, reporter, nil).Run(ctx, scenarios(t, "basic_compute"))

	assert.True(t, result.Interrupted)
	assert.Equal(t, ExitInterrupted, result.ExitCode())
	assert.Equal(t, StatusInconclusive, result.Phases[0].Status)
	assert.Len(t, reporter.results, 1)
}

func TestAccountID(t *testing.T) {
	a := accountID("run-1", "basic_compute")
	assert.Len(t, a, 12)
	assert.Regexp(t, `^[0-9]{12}$`, a)
	assert.Equal(t, a, accountID("run-1", "basic_compute"))
	assert.NotEqual(t, a, accountID("run-2", "basic_compute"))
	assert.NotEqual(t, a, accountID("run-1", "zero_cost"))
}

func phaseErr(sc ScenarioResult, p Phase) string {
	for _, pr := range sc.Phases {
		if pr.Phase == p {
			return pr.ErrorString()
		}
	}
	return ""
}
