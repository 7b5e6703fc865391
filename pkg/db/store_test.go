package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

func TestStoreQueryRows(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	logger := log.New()
	logger.SetLevel(log.DebugLevel)
	store := NewStore(NewLoggingQueryer(conn, logger, true))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) AS rows, sum(cost) AS total FROM summary WHERE source = $1`)).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"rows", "total"}).AddRow(int64(148), []byte("1000.000000000")))

	rows, err := store.QueryRows(context.Background(), `SELECT count(*) AS rows, sum(cost) AS total FROM summary WHERE source = $1`, "abc")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(148), rows[0]["rows"])
	assert.Equal(t, "1000.000000000", rows[0]["total"], "numeric bytes are returned as text")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreQueryErrors(t *testing.T) {
	tests := map[string]struct {
		err  error
		kind boundary.Kind
	}{
		"connection failure": {
			err:  &pq.Error{Code: "08006"},
			kind: boundary.KindTransient,
		},
		"bad password": {
			err:  &pq.Error{Code: "28P01"},
			kind: boundary.KindTransport,
		},
		"undefined table": {
			err:  &pq.Error{Code: "42P01"},
			kind: boundary.KindLogical,
		},
		"other": {
			err:  errors.New("driver: bad connection"),
			kind: boundary.KindTransport,
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			conn, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer conn.Close()
			mock.ExpectQuery("SELECT 1").WillReturnError(tt.err)

			_, err = NewStore(conn).QueryRows(context.Background(), "SELECT 1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, boundary.KindOf(err))
		})
	}
}

func TestMissingTables(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT table_name FROM information_schema.tables`)).
		WithArgs("acct10001", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("reporting_awscostentrylineitem_daily_summary"))

	missing, err := MissingTables(context.Background(), NewStore(conn), "acct10001", []string{
		"reporting_awscostentrylineitem_daily_summary",
		"reporting_awscostentrybill",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reporting_awscostentrybill"}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatArgs(t *testing.T) {
	tests := map[string]struct {
		args     []interface{}
		expected string
	}{
		"none":   {expected: ""},
		"scalar": {args: []interface{}{"a", 3}, expected: `1:"a" 2:3`},
		"bytes":  {args: []interface{}{[]byte("x")}, expected: `1:"x"`},
		"valuer": {args: []interface{}{pq.Array([]string{"a", "b"})}, expected: `1:"{\"a\",\"b\"}"`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatArgs(tt.args))
		})
	}
}
