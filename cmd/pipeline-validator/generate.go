package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
	"github.com/kube-reporting/pipeline-validator/pkg/config"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
)

var generateOpts struct {
	catalogPath string
	windowStart string
	accountID   string
	outputDir   string
	reportName  string
	plainCSV    bool
}

var generateCmd = &cobra.Command{
	Use:   "generate SCENARIO",
	Short: "writes the cost report of a scenario to a local directory without publishing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(generateOpts.catalogPath)
		if err != nil {
			return configFailure(err)
		}
		s, err := catalog.Get(args[0])
		if err != nil {
			return configFailure(err)
		}
		start, err := config.ParseWindowStart(generateOpts.windowStart, time.Now())
		if err != nil {
			return configFailure(err)
		}
		art, err := generate.New().Generate(s, generate.Options{Start: start, AccountID: generateOpts.accountID})
		if err != nil {
			return configFailure(err)
		}
		reportName := generateOpts.reportName
		if reportName == "" {
			reportName = s.Name
		}
		return writeArtifact(cmd.OutOrStdout(), art, generateOpts.outputDir, reportName, generateOpts.plainCSV)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateOpts.catalogPath, "catalog", "", "YAML scenario catalog merged over the built-in scenarios")
	generateCmd.Flags().StringVar(&generateOpts.windowStart, "window-start", "", "start of the usage window (RFC3339 or YYYY-MM-DD), yesterday when empty")
	generateCmd.Flags().StringVar(&generateOpts.accountID, "account-id", generate.DefaultAccountID, "payer and usage account written to every line item")
	generateCmd.Flags().StringVar(&generateOpts.outputDir, "output-dir", ".", "directory the bucket layout is written under")
	generateCmd.Flags().StringVar(&generateOpts.reportName, "report-name", "", "report name, the scenario name when empty")
	generateCmd.Flags().BoolVar(&generateOpts.plainCSV, "csv", false, "also write the uncompressed report next to the gzipped one")
}

type artifactFile struct {
	key  string
	body []byte
}

// writeArtifact lays art out under dir the way the object store publisher
// lays it out in a bucket.
func writeArtifact(out io.Writer, art *generate.Artifact, dir, reportName string, plainCSV bool) error {
	layout := aws.Layout{
		ReportName: reportName,
		Period:     aws.BillingPeriodFor(art.Window.Start),
		AssemblyID: art.Manifest.AssemblyID,
	}
	manifest, err := json.MarshalIndent(publish.NewManifest(art, layout, "local"), "", "  ")
	if err != nil {
		return err
	}
	files := []artifactFile{
		{layout.TopManifestKey(), manifest},
		{layout.AssemblyManifestKey(), manifest},
		{layout.ReportKey(1), art.Report},
	}
	if plainCSV {
		csv, err := art.CSV()
		if err != nil {
			return err
		}
		files = append(files, artifactFile{path.Join(path.Dir(layout.ReportKey(1)), reportName+"-1.csv"), csv})
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(f.key)), f.body); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "wrote %d line items for %s (%s, total %s %s) under %s\n",
		len(art.Items), art.Scenario.Name, art.Window, art.Totals.Cost.StringFixed(2), art.Scenario.Currency, filepath.Join(dir, layout.Root()))
	return nil
}

func writeFile(name string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("failed to create the directory %s: %v", filepath.Dir(name), err)
	}
	return os.WriteFile(name, body, 0644)
}
