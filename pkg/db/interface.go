// Package db holds the relational plumbing shared by the processing database
// and query layer clients.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Queryer is the subset of *sql.DB the stores use.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PingContext(ctx context.Context) error
	Close() error
}

type loggingQueryer struct {
	Queryer
	logger     log.FieldLogger
	logQueries bool
}

// NewLoggingQueryer logs every query with its arguments and duration at
// debug level when logQueries is set.
func NewLoggingQueryer(queryer Queryer, logger log.FieldLogger, logQueries bool) Queryer {
	return &loggingQueryer{Queryer: queryer, logger: logger, logQueries: logQueries}
}

func (q *loggingQueryer) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if !q.logQueries {
		return q.Queryer.QueryContext(ctx, query, args...)
	}
	start := time.Now()
	rows, err := q.Queryer.QueryContext(ctx, query, args...)
	q.logger.WithFields(log.Fields{
		"took":  time.Since(start),
		"query": query,
	}).Debugf("QUERY [%s]", formatArgs(args))
	return rows, err
}

// formatArgs renders positional query arguments as 1:'a' 2:3, resolving
// driver.Valuer arguments such as pq.Array first.
func formatArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if valuer, ok := arg.(driver.Valuer); ok {
			if v, err := valuer.Value(); err == nil {
				arg = v
			}
		}
		switch v := arg.(type) {
		case string:
			parts[i] = fmt.Sprintf("%d:%q", i+1, v)
		case []byte:
			parts[i] = fmt.Sprintf("%d:%q", i+1, string(v))
		default:
			parts[i] = fmt.Sprintf("%d:%v", i+1, v)
		}
	}
	return strings.Join(parts, " ")
}
