package pgsql

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zeptools/gw-pdfedit/db/sqldb"
)

type Result struct {
	tag          pgconn.CommandTag
	lastInsertID int64 // from RETURNING id
	inserted     bool
}

// Ensure pgsql.Result implements sqldb.Result
var _ sqldb.Result = (*Result)(nil)

func (r *Result) RowsAffected() (int64, error) {
	if r.inserted {
		return 1, nil
	}
	return r.tag.RowsAffected(), nil
}

// LastInsertId is only known for results of InsertStmt
func (r *Result) LastInsertId() (int64, error) {
	if r.inserted {
		return r.lastInsertID, nil
	}
	return 0, fmt.Errorf("LastInsertId not supported; use InsertStmt")
}
