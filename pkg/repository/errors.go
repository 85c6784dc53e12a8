package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the domain repositories distinguish.
const (
	CodeUniqueViolation = "23505"
	CodeCheckViolation  = "23514"
)

// Code returns the SQLSTATE carried by err, or "" when err did not come
// from the server.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MapError maps sql.ErrNoRows to notFoundErr and a unique violation to
// duplicateErr. Anything else passes through.
func MapError(err error, notFoundErr, duplicateErr error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFoundErr
	case Code(err) == CodeUniqueViolation:
		return duplicateErr
	default:
		return err
	}
}

// IsCheckViolation reports whether a CHECK constraint rejected the row.
func IsCheckViolation(err error) bool {
	return Code(err) == CodeCheckViolation
}
