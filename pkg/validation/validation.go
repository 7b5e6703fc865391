// Package validation compares what the pipeline reports against the values a
// scenario fixed when it was defined.
package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
)

const DefaultTolerance = 0.05

// epsilon keeps relative deviation defined when the expected value is zero.
var epsilon = decimal.New(1, -9)

const (
	CheckGeneratorRecords  = "generator.records"
	CheckGeneratorTotal    = "generator.total"
	CheckSummaryRows       = "database.summary_rows_present"
	CheckSummaryTotal      = "database.summary_total"
	CheckQueryLayerRecords = "query_layer.records"
	CheckQueryLayerTotal   = "query_layer.total"
	CheckAPITotal          = "api.total"
	CheckAPIResourceTypes  = "api.resource_types"
	CheckAPICurrency       = "api.currency"
	checkAPIBreakdown      = "api.breakdown."
)

// Result is the outcome of one check. Tolerance is zero for exact checks.
type Result struct {
	Check      string
	Expected   string
	Actual     string
	Tolerance  float64
	Passed     bool
	Diagnostic string
}

// Totals are record count and cost as observed at one stage.
type Totals struct {
	Records int64
	Total   decimal.Decimal
}

// Observation holds what was read back from the deployment. Stages that were
// not observed are nil and produce no checks.
type Observation struct {
	Summary    *Totals
	QueryLayer *Totals
	API        *boundary.CostSummary
}

// Relative reports whether actual is within tolerance of expected and the
// relative deviation.
func Relative(expected, actual decimal.Decimal, tolerance float64) (bool, decimal.Decimal) {
	denom := expected.Abs()
	if denom.LessThan(epsilon) {
		denom = epsilon
	}
	deviation := actual.Sub(expected).Abs().Div(denom)
	return deviation.LessThanOrEqual(decimal.NewFromFloat(tolerance)), deviation
}

func relativeCheck(name string, expected, actual decimal.Decimal, tolerance float64) Result {
	passed, deviation := Relative(expected, actual, tolerance)
	r := Result{
		Check:     name,
		Expected:  expected.String(),
		Actual:    actual.String(),
		Tolerance: tolerance,
		Passed:    passed,
	}
	if !passed {
		r.Diagnostic = fmt.Sprintf("deviation %s%% exceeds tolerance %s%%",
			deviation.Mul(decimal.NewFromInt(100)).StringFixed(2),
			decimal.NewFromFloat(tolerance*100).StringFixed(2))
	}
	return r
}

func exactCheck(name, expected, actual string) Result {
	r := Result{
		Check:    name,
		Expected: expected,
		Actual:   actual,
		Passed:   expected == actual,
	}
	if !r.Passed {
		r.Diagnostic = fmt.Sprintf("expected %q, got %q", expected, actual)
	}
	return r
}

type Engine struct {
	DefaultTolerance float64
}

func NewEngine(defaultTolerance float64) *Engine {
	if defaultTolerance <= 0 {
		defaultTolerance = DefaultTolerance
	}
	return &Engine{DefaultTolerance: defaultTolerance}
}

// Evaluate runs every check the observation allows. The order of the results
// is stable.
func (e *Engine) Evaluate(s scenario.Scenario, generated generate.Totals, obs Observation) []Result {
	tol := s.ToleranceOr(e.DefaultTolerance)
	expectedRecords := strconv.Itoa(s.RecordCount())

	results := []Result{
		exactCheck(CheckGeneratorRecords, expectedRecords, strconv.Itoa(generated.Records)),
		relativeCheck(CheckGeneratorTotal, s.ExpectedTotalCost, generated.Cost, tol),
	}

	if obs.Summary != nil {
		present := Result{
			Check:    CheckSummaryRows,
			Expected: "> 0",
			Actual:   strconv.FormatInt(obs.Summary.Records, 10),
			Passed:   obs.Summary.Records > 0,
		}
		if !present.Passed {
			present.Diagnostic = "no daily summary rows for the source in the window"
		}
		results = append(results,
			present,
			relativeCheck(CheckSummaryTotal, s.ExpectedTotalCost, obs.Summary.Total, tol),
		)
	}

	if obs.QueryLayer != nil {
		results = append(results,
			exactCheck(CheckQueryLayerRecords, expectedRecords, strconv.FormatInt(obs.QueryLayer.Records, 10)),
			relativeCheck(CheckQueryLayerTotal, s.ExpectedTotalCost, obs.QueryLayer.Total, tol),
		)
	}

	if obs.API != nil {
		results = append(results, relativeCheck(CheckAPITotal, s.ExpectedTotalCost, obs.API.Total, tol))
		results = append(results, e.breakdown(s, obs.API, tol)...)
		results = append(results, resourceTypes(s, obs.API), currency(s, obs.API))
	}
	return results
}

func (e *Engine) breakdown(s scenario.Scenario, api *boundary.CostSummary, tol float64) []Result {
	codes := s.ProductCodes()
	types := make([]string, 0, len(s.ExpectedBreakdown))
	for t := range s.ExpectedBreakdown {
		types = append(types, t)
	}
	sort.Strings(types)

	results := make([]Result, 0, len(types))
	for _, t := range types {
		name := checkAPIBreakdown + t
		actual, ok := api.ByGroup[codes[t]]
		if !ok {
			results = append(results, Result{
				Check:      name,
				Expected:   s.ExpectedBreakdown[t].String(),
				Tolerance:  tol,
				Diagnostic: fmt.Sprintf("no %s group in the API response", codes[t]),
			})
			continue
		}
		results = append(results, relativeCheck(name, s.ExpectedBreakdown[t], actual, tol))
	}
	return results
}

func resourceTypes(s scenario.Scenario, api *boundary.CostSummary) Result {
	var expected, actual []string
	for _, code := range s.ProductCodes() {
		expected = append(expected, code)
		if _, ok := api.ByGroup[code]; ok {
			actual = append(actual, code)
		}
	}
	sort.Strings(expected)
	sort.Strings(actual)
	return exactCheck(CheckAPIResourceTypes, strings.Join(expected, ","), strings.Join(actual, ","))
}

func currency(s scenario.Scenario, api *boundary.CostSummary) Result {
	want := s.Currency
	if want == "" {
		want = scenario.DefaultCurrency
	}
	r := exactCheck(CheckAPICurrency, want, api.Units)
	if api.Units == "" {
		r.Diagnostic = "the API response carries no currency units"
	}
	return r
}

// Passed is true when every check passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failing checks in order.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
