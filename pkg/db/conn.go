package db

import (
	"database/sql"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

// NewConn opens driverName/connStr without contacting the server. Preflight
// pings every connection with retries, so an unreachable server is reported
// as a failed phase instead of a startup error.
func NewConn(logger log.FieldLogger, driverName, connStr string) (*sql.DB, error) {
	conn, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, boundary.Config("open "+driverName, err)
	}
	logger.Debugf("opened %s connection pool", driverName)
	return conn, nil
}
