package db

import (
	"context"
	"errors"
	"net"
	"sort"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

const postgresDriver = "postgres"

// Store implements boundary.RelationalStore against PostgreSQL.
type Store struct {
	queryer Queryer
}

var _ boundary.RelationalStore = (*Store)(nil)

// Open prepares a connection pool to the processing database.
func Open(logger log.FieldLogger, dsn string, logQueries bool) (*Store, error) {
	conn, err := NewConn(logger, postgresDriver, dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(NewLoggingQueryer(conn, logger, logQueries)), nil
}

func NewStore(queryer Queryer) *Store {
	return &Store{queryer: queryer}
}

func (s *Store) QueryRows(ctx context.Context, query string, args ...interface{}) ([]boundary.Row, error) {
	rows, err := Select(ctx, s.queryer, query, args...)
	if err != nil {
		return nil, classify("query", err)
	}
	return rows, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.queryer.PingContext(ctx))
}

func (s *Store) Close() error {
	return s.queryer.Close()
}

// MissingTables returns which of tables do not exist in schema.
func MissingTables(ctx context.Context, store boundary.RelationalStore, schema string, tables []string) ([]string, error) {
	rows, err := store.QueryRows(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_name = ANY($2)`,
		schema, pq.Array(tables))
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		if name, ok := row["table_name"].(string); ok {
			present[name] = true
		}
	}
	var missing []string
	for _, t := range tables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// classify maps PostgreSQL error classes onto boundary kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57", "40":
			// connection exception, insufficient resources, operator
			// intervention, transaction rollback
			return boundary.Transient(op, err)
		case "28":
			return boundary.Transport(op, err)
		case "42", "22":
			return boundary.Logical(op, err)
		}
		return boundary.Transport(op, err)
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return boundary.Transient(op, err)
	}
	return boundary.Classify(op, err)
}
