package queries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var params = Params{
	PublicSchema: "public",
	Schema:       "acct10001",
	Catalog:      "hive",
	SourceUUID:   "6f1b0c1e-0000-4000-8000-000000000001",
	AccountID:    "123456789012",
	Start:        time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	End:          time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
}

func TestRenderDefaults(t *testing.T) {
	s := Defaults()
	for _, name := range s.Names() {
		out, err := s.Render(name, params)
		require.NoError(t, err, name)
		assert.NotContains(t, out, "{{", name)
	}

	out, err := s.Render(QueryLayerTotals, params)
	require.NoError(t, err)
	assert.Contains(t, out, "FROM hive.acct10001.aws_line_items")
	assert.Contains(t, out, "year = '2024'")
	assert.Contains(t, out, "month = '03'")
	assert.Contains(t, out, "lineitem_unblendedcost")
	assert.Contains(t, out, "lineitem_usageaccountid = '123456789012'")

	out, err = s.Render(SummaryTotals, params)
	require.NoError(t, err)
	assert.Contains(t, out, "FROM acct10001.reporting_awscostentrylineitem_daily_summary")
	assert.Contains(t, out, "source_uuid = $1")
}

func TestWithOverrides(t *testing.T) {
	s, err := Defaults().WithOverrides(map[string]string{
		SummaryTotals: `SELECT 1 AS records, 0 AS total FROM {{ .Schema | upper }}.t`,
	})
	require.NoError(t, err)
	out, err := s.Render(SummaryTotals, params)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 AS records, 0 AS total FROM ACCT10001.t", out)

	// the receiver keeps its templates
	out, err = Defaults().Render(SummaryTotals, params)
	require.NoError(t, err)
	assert.Contains(t, out, "reporting_awscostentrylineitem_daily_summary")

	_, err = Defaults().WithOverrides(map[string]string{"nope": "SELECT 1"})
	assert.Error(t, err)
	_, err = Defaults().WithOverrides(map[string]string{SummaryTotals: "{{ .Schema "})
	assert.Error(t, err)
}
