package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/orchestrator"
)

var (
	runOpts = config.NewOptions()

	logFullTimestamp    bool
	logDisableTimestamp bool
)

var rootCmd = &cobra.Command{
	Use:           "pipeline-validator",
	Short:         "validates a cost management deployment end to end with synthetic usage data",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:               "run",
	Short:             "publishes synthetic cost reports and validates what the deployment makes of them",
	Args:              cobra.NoArgs,
	PersistentPreRunE: loadEnvironment,
	RunE:              runValidation,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func AddCommands() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(generateCmd)
}

func init() {
	// globally set time to UTC
	time.Local = time.UTC

	rootCmd.PersistentFlags().BoolVar(&logFullTimestamp, "log-timestamp", true, "log full timestamp if true, otherwise log time since startup")
	rootCmd.PersistentFlags().BoolVar(&logDisableTimestamp, "disable-timestamp", false, "disable timestamp logging")

	runOpts.AddFlags(runCmd.Flags())
}

func main() {
	AddCommands()

	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			log.WithError(exitErr.err).Error("run failed")
		}
		os.Exit(exitErr.code)
	}
	log.WithError(err).Errorf("error executing command: %v", err)
	os.Exit(orchestrator.ExitInfrastructure)
}

// loadEnvironment layers the .env file and VALIDATOR_* variables under the
// flags given on the command line.
func loadEnvironment(cmd *cobra.Command, _ []string) error {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:    logFullTimestamp,
		DisableTimestamp: logDisableTimestamp,
	})
	if f := cmd.Flags().Lookup("env-file"); f != nil && !f.Changed {
		if v := os.Getenv(config.EnvKey(config.EnvPrefix, "env-file")); v != "" {
			runOpts.EnvFile = v
		}
	}
	if err := config.LoadDotEnv(runOpts.EnvFile); err != nil {
		return configFailure(err)
	}
	if err := config.SetFlagsFromEnv(cmd.Flags(), config.EnvPrefix); err != nil {
		return configFailure(fmt.Errorf("error setting flags from environment variables: %v", err))
	}
	return nil
}

func configFailure(err error) error {
	return &exitError{code: orchestrator.ExitInfrastructure, err: err}
}

func setupSignals() (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case sig := <-sigs:
			log.Infof("got signal %s, stopping the run", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}

func newLogger(level log.Level) log.FieldLogger {
	logger := log.WithFields(log.Fields{
		"app": "pipeline-validator",
	})
	logger.Logger.Level = level
	logger.Debugf("setting log level to %s", level.String())
	return logger
}
