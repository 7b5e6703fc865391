package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/scenario"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRelative(t *testing.T) {
	tests := map[string]struct {
		expected  string
		actual    string
		tolerance float64
		passed    bool
	}{
		"exact":                {expected: "100", actual: "100", tolerance: 0.05, passed: true},
		"within tolerance":     {expected: "100", actual: "104.99", tolerance: 0.05, passed: true},
		"at tolerance":         {expected: "100", actual: "105", tolerance: 0.05, passed: true},
		"beyond tolerance":     {expected: "100", actual: "106", tolerance: 0.05, passed: false},
		"below":                {expected: "100", actual: "94", tolerance: 0.05, passed: false},
		"zero expected":        {expected: "0", actual: "0", tolerance: 0.05, passed: true},
		"zero expected, drift": {expected: "0", actual: "0.000001", tolerance: 0.05, passed: false},
		"negative":             {expected: "-60", actual: "-59", tolerance: 0.05, passed: true},
		"sign flip":            {expected: "-60", actual: "60", tolerance: 0.05, passed: false},
		"beyond int32":         {expected: "2400000000", actual: "2400000000.01", tolerance: 0, passed: false},
		"sub cent":             {expected: "0.432048", actual: "0.43", tolerance: 0.01, passed: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			passed, _ := Relative(d(tt.expected), d(tt.actual), tt.tolerance)
			assert.Equal(t, tt.passed, passed)
		})
	}
}

func basicCompute(t *testing.T) (scenario.Scenario, generate.Totals) {
	s, err := scenario.Builtin().Get("basic_compute")
	require.NoError(t, err)
	return s, generate.Totals{
		Records: s.RecordCount(),
		Cost:    d("1000.00"),
		ByType:  map[string]decimal.Decimal{"compute": d("600"), "storage": d("400")},
	}
}

func checksByName(results []Result) map[string]Result {
	out := map[string]Result{}
	for _, r := range results {
		out[r.Check] = r
	}
	return out
}

func TestEvaluateGeneratorOnly(t *testing.T) {
	s, gen := basicCompute(t)
	results := NewEngine(0).Evaluate(s, gen, Observation{})
	require.Len(t, results, 2)
	assert.True(t, Passed(results))
	assert.Equal(t, CheckGeneratorRecords, results[0].Check)
	assert.Equal(t, "148", results[0].Expected)
	assert.Equal(t, 0.05, results[1].Tolerance)
}

func TestEvaluateAllStages(t *testing.T) {
	s, gen := basicCompute(t)
	obs := Observation{
		Summary:    &Totals{Records: 7, Total: d("1000")},
		QueryLayer: &Totals{Records: 148, Total: d("999.999999")},
		API: &boundary.CostSummary{
			Total: d("1030"),
			Units: "USD",
			ByGroup: map[string]decimal.Decimal{
				"AmazonEC2": d("600"),
				"AmazonEBS": d("430"),
			},
		},
	}
	results := NewEngine(DefaultTolerance).Evaluate(s, gen, obs)
	assert.False(t, Passed(results))

	byName := checksByName(results)
	assert.Len(t, byName, 11)
	for _, name := range []string{
		CheckGeneratorRecords, CheckGeneratorTotal, CheckSummaryRows, CheckSummaryTotal,
		CheckQueryLayerRecords, CheckQueryLayerTotal, CheckAPITotal, "api.breakdown.compute",
		CheckAPIResourceTypes, CheckAPICurrency,
	} {
		assert.True(t, byName[name].Passed, name)
	}

	failed := Failures(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "api.breakdown.storage", failed[0].Check)
	assert.Equal(t, "400", failed[0].Expected)
	assert.Equal(t, "430", failed[0].Actual)
	assert.Equal(t, "deviation 7.50% exceeds tolerance 5.00%", failed[0].Diagnostic)
}

func TestEvaluateStructuralFailures(t *testing.T) {
	s, gen := basicCompute(t)
	obs := Observation{
		Summary:    &Totals{Records: 0, Total: decimal.Zero},
		QueryLayer: &Totals{Records: 147, Total: d("1000")},
		API: &boundary.CostSummary{
			Total:   d("1000"),
			ByGroup: map[string]decimal.Decimal{"AmazonEC2": d("600")},
		},
	}
	byName := checksByName(NewEngine(DefaultTolerance).Evaluate(s, gen, obs))

	assert.False(t, byName[CheckSummaryRows].Passed)
	assert.False(t, byName[CheckSummaryTotal].Passed)
	assert.False(t, byName[CheckQueryLayerRecords].Passed)
	assert.True(t, byName[CheckQueryLayerTotal].Passed)
	assert.False(t, byName["api.breakdown.storage"].Passed)
	assert.Equal(t, "no AmazonEBS group in the API response", byName["api.breakdown.storage"].Diagnostic)
	assert.Equal(t, "AmazonEBS,AmazonEC2", byName[CheckAPIResourceTypes].Expected)
	assert.Equal(t, "AmazonEC2", byName[CheckAPIResourceTypes].Actual)
	assert.False(t, byName[CheckAPICurrency].Passed)
	assert.Equal(t, "the API response carries no currency units", byName[CheckAPICurrency].Diagnostic)
}

func TestEvaluateHonorsScenarioTolerance(t *testing.T) {
	s, err := scenario.Builtin().Get("sub_cent")
	require.NoError(t, err)
	gen := generate.Totals{Records: s.RecordCount(), Cost: s.ExpectedTotalCost}

	obs := Observation{QueryLayer: &Totals{Records: int64(s.RecordCount()), Total: d("0.44")}}
	byName := checksByName(NewEngine(DefaultTolerance).Evaluate(s, gen, obs))

	assert.Equal(t, 0.01, byName[CheckQueryLayerTotal].Tolerance)
	assert.False(t, byName[CheckQueryLayerTotal].Passed)
}
