package presto

import (
	"database/sql"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/pipeline-validator/pkg/db"
)

func NewPrestoConn(logger log.FieldLogger, connStr string) (*sql.DB, error) {
	return db.NewConn(logger.WithField("component", "presto"), driverName, connStr)
}
