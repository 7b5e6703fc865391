package monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/queries"
)

// ManifestProbe reads the workers' manifest bookkeeping tables.
type ManifestProbe struct {
	store   boundary.RelationalStore
	queries queries.Set
	schema  string
}

func NewManifestProbe(store boundary.RelationalStore, qs queries.Set, publicSchema string) *ManifestProbe {
	return &ManifestProbe{store: store, queries: qs, schema: publicSchema}
}

func (p *ManifestProbe) Name() string { return "manifest" }

func (p *ManifestProbe) Probe(ctx context.Context, c Correlation) (Snapshot, error) {
	params := queries.Params{PublicSchema: p.schema}

	q, err := p.queries.Render(queries.ManifestCount, params)
	if err != nil {
		return Snapshot{}, boundary.Config("render manifest count", err)
	}
	rows, err := p.store.QueryRows(ctx, q, c.ProviderID)
	if err != nil {
		return Snapshot{}, err
	}
	var completed int64
	if len(rows) > 0 {
		if completed, err = Int64(rows[0]["completed"]); err != nil {
			return Snapshot{}, boundary.Logical("manifest count", err)
		}
	}

	// a baseline is taken before there is an assembly id
	if c.AssemblyID == "" {
		return Snapshot{State: NotFound, CompletedCount: completed}, nil
	}

	q, err = p.queries.Render(queries.ManifestStatus, params)
	if err != nil {
		return Snapshot{}, boundary.Config("render manifest status", err)
	}
	rows, err = p.store.QueryRows(ctx, q, c.AssemblyID, c.ProviderID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(rows) == 0 {
		return Snapshot{State: NotFound, CompletedCount: completed}, nil
	}

	row := rows[0]
	total, err := Int64(row["total_files"])
	if err != nil {
		return Snapshot{}, boundary.Logical("manifest status", err)
	}
	processed, err := Int64(row["processed_files"])
	if err != nil {
		return Snapshot{}, boundary.Logical("manifest status", err)
	}
	failed, err := Int64(row["failed_files"])
	if err != nil {
		return Snapshot{}, boundary.Logical("manifest status", err)
	}
	done, err := Bool(row["completed"])
	if err != nil {
		return Snapshot{}, boundary.Logical("manifest status", err)
	}

	snap := Snapshot{
		CompletedCount: completed,
		Detail: map[string]string{
			"assembly_id":     c.AssemblyID,
			"total_files":     strconv.FormatInt(total, 10),
			"processed_files": strconv.FormatInt(processed, 10),
			"failed_files":    strconv.FormatInt(failed, 10),
		},
	}
	switch {
	case failed > 0:
		snap.State = Failed
	case done:
		snap.State = Complete
	case processed > 0:
		snap.State = InProgress
	default:
		snap.State = Queued
	}
	return snap, nil
}

// QueryLayerProbe waits for the source's rows to become visible in the
// query layer. The count it reports is the number of visible rows.
type QueryLayerProbe struct {
	query   boundary.QueryService
	queries queries.Set
	catalog string
	schema  string
}

func NewQueryLayerProbe(query boundary.QueryService, qs queries.Set, catalog, schema string) *QueryLayerProbe {
	return &QueryLayerProbe{query: query, queries: qs, catalog: catalog, schema: schema}
}

func (p *QueryLayerProbe) Name() string { return "query_layer" }

func (p *QueryLayerProbe) Probe(ctx context.Context, c Correlation) (Snapshot, error) {
	q, err := p.queries.Render(queries.QueryLayerTotals, queries.Params{
		Catalog:    p.catalog,
		Schema:     p.schema,
		SourceUUID: c.SourceUUID,
		AccountID:  c.AccountID,
		Start:      c.Start,
		End:        c.End,
	})
	if err != nil {
		return Snapshot{}, boundary.Config("render query layer totals", err)
	}
	rows, err := p.query.Select(ctx, q)
	if err != nil {
		return Snapshot{}, err
	}
	var records int64
	if len(rows) > 0 {
		if records, err = Int64(rows[0]["records"]); err != nil {
			return Snapshot{}, boundary.Logical("query layer totals", err)
		}
	}

	snap := Snapshot{
		CompletedCount: records,
		Detail:         map[string]string{"records": strconv.FormatInt(records, 10)},
	}
	visible := records - c.Baseline
	switch {
	case visible <= 0:
		snap.State = NotFound
	case visible >= int64(c.ExpectedRecords):
		snap.State = Complete
	default:
		snap.State = InProgress
	}
	return snap, nil
}

// QueueProbe reports queued work for a publish the wrapped probe cannot see
// yet.
type QueueProbe struct {
	inner     Probe
	inspector boundary.QueueInspector
	queues    []string
	logger    log.FieldLogger
}

func NewQueueProbe(inner Probe, inspector boundary.QueueInspector, queues []string, logger log.FieldLogger) *QueueProbe {
	return &QueueProbe{inner: inner, inspector: inspector, queues: queues, logger: logger}
}

func (p *QueueProbe) Name() string { return p.inner.Name() }

func (p *QueueProbe) Probe(ctx context.Context, c Correlation) (Snapshot, error) {
	snap, err := p.inner.Probe(ctx, c)
	if err != nil || snap.State != NotFound {
		return snap, err
	}
	depths, err := p.inspector.QueueDepth(ctx, p.queues)
	if err != nil {
		p.logger.WithError(err).Debug("queue depth unavailable")
		return snap, nil
	}
	var total int64
	detail := map[string]string{}
	for k, v := range snap.Detail {
		detail[k] = v
	}
	for _, q := range p.queues {
		total += depths[q]
		detail["queue."+q] = strconv.FormatInt(depths[q], 10)
	}
	snap.Detail = detail
	if total > 0 {
		snap.State = Queued
	}
	return snap, nil
}

// Int64 converts a scanned column value to an int64.
func Int64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected integer value %v (%T)", v, v)
}

// Decimal converts a scanned column value to a decimal.
func Decimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case nil:
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("unexpected numeric value %v (%T)", v, v)
}

// Bool converts a scanned column value to a bool.
func Bool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "t", "true":
			return true, nil
		case "f", "false":
			return false, nil
		}
	case nil:
		return false, nil
	}
	return false, fmt.Errorf("unexpected boolean value %v (%T)", v, v)
}
