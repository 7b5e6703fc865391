// Package presto is the query layer client.
package presto

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/prestodb/presto-go-client/presto"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
	"github.com/kube-reporting/pipeline-validator/pkg/db"
)

const (
	driverName = "presto"

	// readinessQuery lists the active nodes of the cluster.
	readinessQuery = "SELECT * FROM system.runtime.nodes"
)

// ErrNoNodes is returned when the cluster answers but reports no workers.
var ErrNoNodes = errors.New("presto reported no active nodes")

// Client implements boundary.QueryService.
type Client struct {
	queryer db.Queryer
}

var _ boundary.QueryService = (*Client)(nil)

// Open connects to the coordinator at connStr, e.g.
// http://validator@presto:8080?catalog=hive&schema=default.
func Open(logger log.FieldLogger, connStr string, logQueries bool) (*Client, error) {
	conn, err := NewPrestoConn(logger, connStr)
	if err != nil {
		return nil, err
	}
	return NewClient(db.NewLoggingQueryer(conn, logger, logQueries)), nil
}

func NewClient(queryer db.Queryer) *Client {
	return &Client{queryer: queryer}
}

func (c *Client) Select(ctx context.Context, query string) ([]boundary.Row, error) {
	rows, err := ExecuteSelect(ctx, c.queryer, query)
	if err != nil {
		return nil, classify("select", err)
	}
	return rows, nil
}

// Ping succeeds once the cluster has at least one node able to run queries.
func (c *Client) Ping(ctx context.Context) error {
	rows, err := ExecuteSelect(ctx, c.queryer, readinessQuery)
	if err != nil {
		return classify("readiness", err)
	}
	if len(rows) == 0 {
		return boundary.Transient("readiness", ErrNoNodes)
	}
	return nil
}

func (c *Client) Close() error {
	return c.queryer.Close()
}

// ExecuteSelect performs query and returns its rows.
func ExecuteSelect(ctx context.Context, queryer db.Queryer, query string) ([]boundary.Row, error) {
	rows, err := db.Select(ctx, queryer, query)
	if err != nil {
		return nil, fmt.Errorf("presto SQL error: %w", err)
	}
	return rows, nil
}

// classify treats coordinator start-up and resource errors as transient.
func classify(op string, err error) error {
	msg := err.Error()
	for _, transient := range []string{
		"SERVER_STARTING_UP",
		"NO_NODES_AVAILABLE",
		"CLUSTER_OUT_OF_MEMORY",
		"connection refused",
		"EOF",
		"503",
	} {
		if strings.Contains(msg, transient) {
			return boundary.Transient(op, err)
		}
	}
	for _, logical := range []string{
		"TABLE_NOT_FOUND",
		"SCHEMA_NOT_FOUND",
		"COLUMN_NOT_FOUND",
		"SYNTAX_ERROR",
	} {
		if strings.Contains(msg, logical) {
			return boundary.Logical(op, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return boundary.Transient(op, err)
	}
	return boundary.Classify(op, err)
}
