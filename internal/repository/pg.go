package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Constraint names the application relies on. The duplicate-active-enrollment
// and code-collision races are closed by these store-level constraints, not
// by the in-process pre-checks.
const (
	ConstraintEnrollmentActiveTuple = "enrollments_active_tuple_key"
	ConstraintEnrollmentCode        = "enrollments_code_key"
)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

// UniqueViolation reports whether err is a unique constraint violation and,
// if so, which constraint was hit.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// SerializationFailure reports whether err is a serializable-isolation
// conflict that warrants retrying the whole transaction.
func SerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqSerializationFailure
}
