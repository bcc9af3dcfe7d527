package errors

// Postgres helpers: SQLSTATE mapping and retry semantics for the SQL destination

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation           = "23505"
	pgErrNotNullViolation          = "23502"
	pgErrCheckViolation            = "23514"
	pgErrStringDataRightTruncation = "22001"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrUndefinedTable            = "42P01"
	pgErrUndefinedColumn           = "42703"

	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
	pgErrLockNotAvailable     = "55P03"
	pgErrCannotConnectNow     = "57P03"
	pgErrAdminShutdown        = "57P01"

	// class 08: connection exception
	pgClassConnection = "08"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsUndefinedTable reports a missing relation
func IsUndefinedTable(err error) bool { return IsSQLState(err, pgErrUndefinedTable) }

// DBErrorCode maps a Postgres error to an ErrorCode; !ok means err was not a PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	switch {
	case pgErr.Code == pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgErr.Code == pgErrNotNullViolation, pgErr.Code == pgErrCheckViolation:
		return ErrorCodeValidation, true
	case pgErr.Code == pgErrStringDataRightTruncation, pgErr.Code == pgErrInvalidTextRepresentation:
		return ErrorCodeInvalidArgument, true
	case pgErr.Code == pgErrUndefinedTable, pgErr.Code == pgErrUndefinedColumn:
		return ErrorCodeConfig, true
	case pgErr.Code == pgErrCannotConnectNow, pgErr.Code == pgErrAdminShutdown,
		strings.HasPrefix(pgErr.Code, pgClassConnection):
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a database error is transient contention or a
// dropped connection. It covers structured PgErrors and the bare pgx texts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	root := Root(err)
	var pgErr *pgconn.PgError
	if stderrs.As(root, &pgErr) {
		switch {
		case pgErr.Code == pgErrSerializationFailure, pgErr.Code == pgErrDeadlockDetected,
			pgErr.Code == pgErrLockNotAvailable, pgErr.Code == pgErrCannotConnectNow,
			pgErr.Code == pgErrAdminShutdown, strings.HasPrefix(pgErr.Code, pgClassConnection):
			return true
		default:
			return false
		}
	}

	s := strings.ToLower(root.Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "canceling statement due to lock timeout"),
		strings.Contains(s, "terminating connection due to administrator command"),
		strings.Contains(s, "conn closed"):
		return true
	default:
		return false
	}
}
