package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes
const (
	pqUniqueViolation  = "23505"
	pqInvalidTextRepr  = "22P02"
	pqForeignKeyViolat = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isMalformedID reports a uuid column compared with a non-uuid string. Such
// ids can never match a row, so callers treat it as not found.
func isMalformedID(err error) bool {
	return pqCode(err) == pqInvalidTextRepr
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolat
}
