package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/generate"
	"github.com/kube-reporting/pipeline-validator/pkg/publish"
)

// fakeDeployment plays the database and the object store of a deployment
// whose workers finish a batch as soon as it is published.
type fakeDeployment struct {
	mu sync.Mutex

	nextProvider int64
	providers    map[string]int64
	completed    map[int64]int64
	assemblies   map[string]int64
	totals       map[string]generate.Totals
	byAccount    map[string]generate.Totals

	// stuck batches are never processed
	stuck bool
	// apiSkew scales the totals the API reports
	apiSkew    decimal.Decimal
	publishErr map[string]error
	cleaned    []string
}

func newFakeDeployment() *fakeDeployment {
	return &fakeDeployment{
		providers:  map[string]int64{},
		completed:  map[int64]int64{},
		assemblies: map[string]int64{},
		totals:     map[string]generate.Totals{},
		byAccount:  map[string]generate.Totals{},
		apiSkew:    decimal.NewFromInt(1),
		publishErr: map[string]error{},
	}
}

func (f *fakeDeployment) register(req boundary.SourceRequest) boundary.Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextProvider++
	uuid := fmt.Sprintf("source-%d", f.nextProvider)
	f.providers[uuid] = f.nextProvider
	// sources start out with batches from earlier runs
	f.completed[f.nextProvider] = 4
	return boundary.Source{UUID: uuid, ID: f.nextProvider, Name: req.Name}
}

func (f *fakeDeployment) costs(q boundary.CostQuery) boundary.CostSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.byAccount[q.Filters["account"]]
	summary := boundary.CostSummary{
		Total:   t.Cost.Mul(f.apiSkew),
		Units:   "USD",
		ByGroup: map[string]decimal.Decimal{},
	}
	for code, v := range t.ByProduct {
		summary.ByGroup[code] = v.Mul(f.apiSkew)
	}
	return summary
}

func (f *fakeDeployment) QueryRows(_ context.Context, query string, args ...interface{}) ([]boundary.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.Contains(query, "information_schema"):
		var rows []boundary.Row
		for _, t := range append(append([]string{}, publicTables...), tenantTables...) {
			rows = append(rows, boundary.Row{"table_name": t})
		}
		return rows, nil
	case strings.Contains(query, "count(*) AS completed"):
		return []boundary.Row{{"completed": f.completed[args[0].(int64)]}}, nil
	case strings.Contains(query, "m.assembly_id = $1"):
		provider, ok := f.assemblies[args[0].(string)]
		if !ok || provider != args[1].(int64) {
			return nil, nil
		}
		if f.stuck {
			return []boundary.Row{{"total_files": int64(1), "processed_files": int64(0), "failed_files": int64(0), "completed": false}}, nil
		}
		return []boundary.Row{{"total_files": int64(1), "processed_files": int64(1), "failed_files": int64(0), "completed": true}}, nil
	case strings.Contains(query, "daily_summary"):
		t, ok := f.totals[args[0].(string)]
		if !ok {
			return []boundary.Row{{"records": int64(0), "total": "0"}}, nil
		}
		return []boundary.Row{{"records": int64(1), "total": t.Cost.String()}}, nil
	}
	return nil, fmt.Errorf("unexpected query %q", query)
}

func (f *fakeDeployment) Ping(context.Context) error { return nil }

func (f *fakeDeployment) Close() error { return nil }

func (f *fakeDeployment) Publish(_ context.Context, art *generate.Artifact, target publish.Target) (publish.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.publishErr[art.Scenario.Name]; err != nil {
		return publish.Receipt{}, err
	}
	assembly := art.Manifest.AssemblyID
	provider := f.providers[target.SourceUUID]
	f.assemblies[assembly] = provider
	if !f.stuck {
		f.completed[provider]++
	}
	f.totals[target.SourceUUID] = art.Totals
	f.byAccount[art.Manifest.AccountID] = art.Totals
	return publish.Receipt{
		TrackingID:  assembly,
		AssemblyID:  assembly,
		Boundary:    publish.BoundaryObjectStore,
		Scenario:    art.Scenario.Name,
		ReportName:  target.ReportName,
		SourceUUID:  target.SourceUUID,
		RecordCount: len(art.Items),
	}, nil
}

func (f *fakeDeployment) Cleanup(_ context.Context, receipt publish.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, receipt.Scenario)
	return nil
}

func decimal106() decimal.Decimal {
	return decimal.RequireFromString("1.06")
}
