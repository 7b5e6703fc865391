// Package queries holds the SQL templates used to observe the pipeline.
// Relational templates interpolate only schema names and take values as
// positional parameters; query layer templates render literals through the
// literal function.
package queries

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/kube-reporting/pipeline-validator/pkg/aws"
	"github.com/kube-reporting/pipeline-validator/pkg/presto"
)

// Template names, also the keys accepted in catalog overrides.
const (
	ManifestCount    = "manifestCount"
	ManifestStatus   = "manifestStatus"
	SummaryTotals    = "summaryTotals"
	QueryLayerTotals = "queryLayerTotals"
)

// Params are the values templates may reference.
type Params struct {
	PublicSchema string
	Schema       string
	Catalog      string
	SourceUUID   string
	TrackingID   string
	AccountID    string
	Start        time.Time
	End          time.Time
}

const defaultManifestCount = `SELECT count(*) AS completed
  FROM {{ .PublicSchema }}.reporting_common_costusagereportmanifest
 WHERE provider_id = $1
   AND completed_datetime IS NOT NULL`

const defaultManifestStatus = `SELECT m.assembly_id,
       m.num_total_files AS total_files,
       count(s.id) FILTER (WHERE s.completed_datetime IS NOT NULL) AS processed_files,
       count(s.id) FILTER (WHERE s.failed_status IS NOT NULL) AS failed_files,
       m.completed_datetime IS NOT NULL AS completed
  FROM {{ .PublicSchema }}.reporting_common_costusagereportmanifest m
  LEFT JOIN {{ .PublicSchema }}.reporting_common_costusagereportstatus s ON s.manifest_id = m.id
 WHERE m.assembly_id = $1
   AND m.provider_id = $2
 GROUP BY m.id`

const defaultSummaryTotals = `SELECT count(*) AS records,
       coalesce(sum(unblended_cost), 0) AS total
  FROM {{ .Schema }}.reporting_awscostentrylineitem_daily_summary
 WHERE source_uuid = $1
   AND usage_start >= $2
   AND usage_start < $3`

const defaultQueryLayerTotals = `SELECT count(*) AS records,
       coalesce(sum(CAST({{ hiveColumn "lineItem" "UnblendedCost" }} AS decimal(33, 15))), 0) AS total
  FROM {{ table .Catalog .Schema "aws_line_items" }}
 WHERE source = {{ literal .SourceUUID }}
   AND year = {{ dateInZone "2006" .Start "UTC" | literal }}
   AND month = {{ dateInZone "01" .Start "UTC" | literal }}
   AND {{ hiveColumn "lineItem" "UsageAccountId" }} = {{ literal .AccountID }}`

// Set is a complete collection of templates.
type Set struct {
	templates map[string]string
}

// Defaults returns the built-in templates.
func Defaults() Set {
	return Set{templates: map[string]string{
		ManifestCount:    defaultManifestCount,
		ManifestStatus:   defaultManifestStatus,
		SummaryTotals:    defaultSummaryTotals,
		QueryLayerTotals: defaultQueryLayerTotals,
	}}
}

// WithOverrides returns a copy of s with the named templates replaced. Every
// override must name a known template and parse.
func (s Set) WithOverrides(overrides map[string]string) (Set, error) {
	out := Set{templates: make(map[string]string, len(s.templates))}
	for k, v := range s.templates {
		out.templates[k] = v
	}
	for name, text := range overrides {
		if _, ok := out.templates[name]; !ok {
			return Set{}, fmt.Errorf("unknown query template %q (known: %s)", name, strings.Join(s.Names(), ", "))
		}
		if _, err := parse(name, text); err != nil {
			return Set{}, err
		}
		out.templates[name] = text
	}
	return out, nil
}

// Names lists the template names, sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for k := range s.templates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template with p.
func (s Set) Render(name string, p Params) (string, error) {
	text, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown query template %q", name)
	}
	tmpl, err := parse(name, text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering query %s: %v", name, err)
	}
	return buf.String(), nil
}

var extraFuncs = template.FuncMap{
	"literal": presto.QuoteString,
	"ident":   presto.QuoteIdentifier,
	"table":   presto.FullyQualifiedTableName,
	"hiveColumn": func(category, name string) string {
		return aws.Column{Category: category, Name: name}.HiveName()
	},
}

func parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Funcs(extraFuncs).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing query %s: %v", name, err)
	}
	return tmpl, nil
}
