package database

import (
	"context"
	"errors"

	"item-server/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var constraintFields = map[string]string{
	"users_email_lower_unique":   "email",
	"users_phone_unique":         "phone",
	"identities_provider_unique": "identity",
	"sessions_token_unique":      "session",
}

// translateError maps constraint violations onto the application error
// taxonomy and passes every other error through untouched.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			return apperr.ErrConflict
		}
		return &apperr.ConflictError{Field: field}
	case pgForeignKeyViolation:
		return apperr.ErrNotFound
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
