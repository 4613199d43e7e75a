package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateEmployeeCode = errors.New("employee code already in use")
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
