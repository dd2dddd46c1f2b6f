package database

import (
	"errors"
	"fmt"
	"testing"

	"item-server/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	plain := errors.New("connection reset")
	require.Same(t, plain, translateError(plain))

	err := translateError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_phone_unique"}))
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "phone", conflict.Field)

	err = translateError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "something_else"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	err = translateError(&pgconn.PgError{Code: pgForeignKeyViolation})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	other := &pgconn.PgError{Code: "42P01"}
	require.Same(t, other, translateError(other))
}

func TestIsNoRows(t *testing.T) {
	require.True(t, isNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	require.False(t, isNoRows(errors.New("other")))
}
