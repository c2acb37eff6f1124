package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn" // Import pgconn for PgError
)

// PostgreSQL SQLSTATE codes the application reacts to.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsForeignKeyViolation reports a reference to a missing row.
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == CodeForeignKeyViolation
}

// IsCheckViolation reports a row rejected by a CHECK constraint.
func IsCheckViolation(err error) bool {
	return sqlState(err) == CodeCheckViolation
}

// IsSerializationFailure reports whether a SERIALIZABLE transaction was aborted because a
// concurrent transaction invalidated its reads.
func IsSerializationFailure(err error) bool {
	return sqlState(err) == CodeSerializationFailure
}

// IsRetryable reports errors after which the whole transaction can safely be re-run.
func IsRetryable(err error) bool {
	switch sqlState(err) {
	case CodeSerializationFailure, CodeDeadlockDetected:
		return true
	}
	return false
}
