// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
//
// Every repository holds the shared connection pool and accepts an optional
// exec override so a service can route its calls through an open transaction
// (see database.TxRunner). A *sqlx.Tx satisfies both core.DBExecutor and
// sqlx.ExtContext, which is all the queries here need.
package sqlxrepos

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/elimuhub/elimu/core"
)

const pqUniqueViolationCode = "23505"

func getExec(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 && svcExec[0] != nil {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolationCode
	}
	return false
}
