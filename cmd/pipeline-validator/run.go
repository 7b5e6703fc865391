package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/metrics"
	"github.com/kube-reporting/pipeline-validator/pkg/orchestrator"
	"github.com/kube-reporting/pipeline-validator/pkg/queries"
	"github.com/kube-reporting/pipeline-validator/pkg/report"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
	"github.com/kube-reporting/pipeline-validator/pkg/validation"
)

func runValidation(cmd *cobra.Command, _ []string) error {
	creds, err := config.LoadCredentials(os.Getenv)
	if err != nil {
		return configFailure(err)
	}
	rc, err := runOpts.RunContext(time.Now(), orchestrator.PhaseNames(), creds)
	if err != nil {
		return configFailure(err)
	}
	logger := newLogger(rc.LogLevel)

	catalog, err := loadCatalog(rc.CatalogPath)
	if err != nil {
		return configFailure(err)
	}
	scenarios, err := catalog.Select(rc.Scenarios)
	if err != nil {
		return configFailure(err)
	}
	qs, err := queries.Defaults().WithOverrides(catalog.QueryOverrides())
	if err != nil {
		return configFailure(err)
	}

	bounds, err := openBoundaries(rc, logger)
	if err != nil {
		return configFailure(err)
	}
	defer func() {
		if err := bounds.Close(); err != nil {
			logger.WithError(err).Warn("closing boundary clients")
		}
	}()

	ctx, cancel := setupSignals()
	defer cancel()

	orch := orchestrator.New(rc, orchestrator.Deps{
		Boundaries: bounds,
		Publisher:  newPublisher(rc, bounds, boundary.DefaultBackoff, logger),
		Generator:  generate.New(),
		Queries:    qs,
		Engine:     validation.NewEngine(rc.Tolerance),
		Reporter:   report.Writer(rc.ReportOutput, rc.ReportFormat),
		Metrics:    metrics.New(),
		Backoff:    boundary.DefaultBackoff,
		Logger:     logger,
	})
	result := orch.Run(ctx, scenarios)

	code := result.ExitCode()
	logger.WithField("run_id", result.RunID).Infof("run finished %s after %s", result.OverallStatus(), result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
	if code != orchestrator.ExitPassed {
		return &exitError{code: code}
	}
	return nil
}

// loadCatalog returns the built-in scenarios, with path merged over them
// when given.
func loadCatalog(path string) (*scenario.Catalog, error) {
	catalog := scenario.Builtin()
	if path == "" {
		return catalog, nil
	}
	fromFile, err := scenario.LoadFile(path)
	if err != nil {
		return nil, boundary.Config("load catalog", err)
	}
	return catalog.Merge(fromFile)
}
