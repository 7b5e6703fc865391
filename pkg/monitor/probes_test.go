package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/boundary/mock"
	"github.com/kube-reporting/pipeline-validator/pkg/queries"
)

type queryMatcher struct {
	fragment string
}

func (m queryMatcher) Matches(x interface{}) bool {
	s, ok := x.(string)
	return ok && strings.Contains(s, m.fragment)
}

func (m queryMatcher) String() string { return "query containing " + m.fragment }

func TestManifestProbe(t *testing.T) {
	tests := map[string]struct {
		status []boundary.Row
		state  State
	}{
		"not found": {
			status: nil,
			state:  NotFound,
		},
		"queued": {
			status: []boundary.Row{{"total_files": int64(1), "processed_files": int64(0), "failed_files": int64(0), "completed": false}},
			state:  Queued,
		},
		"in progress": {
			status: []boundary.Row{{"total_files": int64(2), "processed_files": int64(1), "failed_files": int64(0), "completed": false}},
			state:  InProgress,
		},
		"complete": {
			status: []boundary.Row{{"total_files": int64(1), "processed_files": int64(1), "failed_files": int64(0), "completed": true}},
			state:  Complete,
		},
		"failed": {
			status: []boundary.Row{{"total_files": int64(1), "processed_files": int64(0), "failed_files": int64(1), "completed": false}},
			state:  Failed,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mock.NewMockRelationalStore(ctrl)
			store.EXPECT().QueryRows(gomock.Any(), queryMatcher{"count(*) AS completed"}, int64(7)).
				Return([]boundary.Row{{"completed": int64(3)}}, nil)
			store.EXPECT().QueryRows(gomock.Any(), queryMatcher{"m.assembly_id = $1"}, "asm-1", int64(7)).
				Return(tt.status, nil)

			p := NewManifestProbe(store, queries.Defaults(), "public")
			snap, err := p.Probe(context.Background(), Correlation{AssemblyID: "asm-1", ProviderID: 7})
			require.NoError(t, err)
			assert.Equal(t, tt.state, snap.State)
			assert.Equal(t, int64(3), snap.CompletedCount)
		})
	}
}

func TestManifestProbeBaselineSkipsStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock.NewMockRelationalStore(ctrl)
	store.EXPECT().QueryRows(gomock.Any(), gomock.Any(), int64(7)).
		Return([]boundary.Row{{"completed": "12"}}, nil)

	snap, err := NewManifestProbe(store, queries.Defaults(), "public").Probe(context.Background(), Correlation{ProviderID: 7})
	require.NoError(t, err)
	assert.Equal(t, NotFound, snap.State)
	assert.Equal(t, int64(12), snap.CompletedCount)
}

func TestQueryLayerProbe(t *testing.T) {
	tests := map[string]struct {
		records  int64
		baseline int64
		state    State
	}{
		"nothing visible":   {records: 0, state: NotFound},
		"partially visible": {records: 100, state: InProgress},
		"all visible":       {records: 148, state: Complete},
		"baseline ignored":  {records: 148, baseline: 148, state: NotFound},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			qs := mock.NewMockQueryService(ctrl)
			qs.EXPECT().Select(gomock.Any(), queryMatcher{"'source-1'"}).
				Return([]boundary.Row{{"records": tt.records, "total": 1000.0}}, nil)

			p := NewQueryLayerProbe(qs, queries.Defaults(), "hive", "acct10001")
			snap, err := p.Probe(context.Background(), Correlation{
				SourceUUID:      "source-1",
				AccountID:       "999999999999",
				Start:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				ExpectedRecords: 148,
				Baseline:        tt.baseline,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.state, snap.State)
			assert.Equal(t, tt.records, snap.CompletedCount)
		})
	}
}

func TestQueueProbe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inspector := mock.NewMockQueueInspector(ctrl)
	inspector.EXPECT().QueueDepth(gomock.Any(), []string{"download", "summary"}).
		Return(map[string]int64{"download": 2}, nil)
	inspector.EXPECT().QueueDepth(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis down"))

	inner := &scriptedProbe{steps: []step{
		{snap: Snapshot{State: NotFound}},
		{snap: Snapshot{State: NotFound}},
		{snap: Snapshot{State: InProgress}},
	}}
	p := NewQueueProbe(inner, inspector, []string{"download", "summary"}, log.New())
	assert.Equal(t, "scripted", p.Name())

	snap, err := p.Probe(context.Background(), Correlation{})
	require.NoError(t, err)
	assert.Equal(t, Queued, snap.State)
	assert.Equal(t, "2", snap.Detail["queue.download"])
	assert.Equal(t, "0", snap.Detail["queue.summary"])

	snap, err = p.Probe(context.Background(), Correlation{})
	require.NoError(t, err)
	assert.Equal(t, NotFound, snap.State)

	snap, err = p.Probe(context.Background(), Correlation{})
	require.NoError(t, err)
	assert.Equal(t, InProgress, snap.State)
}

func TestConversions(t *testing.T) {
	n, err := Int64("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	_, err = Int64(struct{}{})
	assert.Error(t, err)

	d, err := Decimal("1000.000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000", d.String())

	b, err := Bool("t")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = Bool("maybe")
	assert.Error(t, err)
}
