package db

import (
	"errors"

	"github.com/jackc/pgconn"
	pgxconn "github.com/jackc/pgx/v5/pgconn"
)

// pgErrCode extracts the SQLSTATE code from a driver error, covering both the
// pgx v5 and legacy pgconn error types that appear depending on the code path.
func pgErrCode(err error) string {
	var v5Err *pgxconn.PgError
	if errors.As(err, &v5Err) {
		return v5Err.Code
	}
	var legacyErr *pgconn.PgError
	if errors.As(err, &legacyErr) {
		return legacyErr.Code
	}
	return ""
}
