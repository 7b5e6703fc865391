package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
)

var scenariosCatalogPath string

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "lists the scenarios of the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog(scenariosCatalogPath)
		if err != nil {
			return configFailure(err)
		}
		return listScenarios(cmd.OutOrStdout(), catalog)
	},
}

func init() {
	scenariosCmd.Flags().StringVar(&scenariosCatalogPath, "catalog", "", "YAML scenario catalog merged over the built-in scenarios")
}

func listScenarios(w io.Writer, catalog *scenario.Catalog) error {
	tabWriter := tabwriter.NewWriter(w, 0, 8, 2, '\t', 0)
	fmt.Fprintf(tabWriter, "NAME\tDURATION\tEXPECTED TOTAL\tRECORDS\tRESOURCE TYPES\n")
	for _, line := range catalog.Summary() {
		fmt.Fprintln(tabWriter, line)
	}
	return tabWriter.Flush()
}
