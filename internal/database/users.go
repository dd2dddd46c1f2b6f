package database

import (
	"context"
	"fmt"

	"item-server/internal/models"
)

const userColumns = `id, email, phone, password_hash, display_name, created_at, updated_at`

type CreateUserParams struct {
	Email        string
	Phone        *string
	PasswordHash *string
	DisplayName  *string
}

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (email, phone, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var user models.User
	err := scanUser(q.db.QueryRow(ctx, query, arg.Email, arg.Phone, arg.PasswordHash, arg.DisplayName), &user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", translateError(err))
	}
	return &user, nil
}

func (q *Queries) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var user models.User
	if err := scanUser(q.db.QueryRow(ctx, query, arg), &user); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return q.getUser(ctx, `id = $1`, id)
}

// GetUserByEmail matches case-insensitively, mirroring the unique index.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return q.getUser(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (q *Queries) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return q.getUser(ctx, `phone = $1`, phone)
}

func (q *Queries) SetUserPhone(ctx context.Context, userID int64, phone string) error {
	query := `UPDATE users SET phone = $1, updated_at = NOW() WHERE id = $2`
	if _, err := q.db.Exec(ctx, query, phone, userID); err != nil {
		return fmt.Errorf("set user phone: %w", translateError(err))
	}
	return nil
}

// DeleteUser removes the user; sessions, identities, items and events go with it.
func (q *Queries) DeleteUser(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
