package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
	codeSerialization      = "40001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool { return pgCode(err) == codeUniqueViolation }

// IsExclusionViolation reports whether err is an exclusion constraint violation.
func IsExclusionViolation(err error) bool { return pgCode(err) == codeExclusionViolation }

// IsSerializationFailure reports whether err is a serialization failure.
func IsSerializationFailure(err error) bool { return pgCode(err) == codeSerialization }
