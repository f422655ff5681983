package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"workshop/internal/core/apperror"
)

// Postgres error codes the application distinguishes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// TranslateError maps driver errors to application error kinds so callers
// can distinguish unique-constraint collisions from other failures.
func TranslateError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return apperror.NewCancelled().WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicateKey(entity, pgErr.ConstraintName, id).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewForeignKeyInUse(entity, id).WithCause(err)
		case pgCheckViolation:
			return apperror.NewIntegrityViolation(pgErr.Message).WithCause(err)
		}
	}

	return err
}
