package database

import (
	"context"
	"fmt"
	"time"

	"item-server/internal/models"

	"github.com/google/uuid"
)

const sessionColumns = `id, user_id, token, user_agent, client_ip, expires_at, created_at`

type CreateSessionParams struct {
	ID        uuid.UUID
	UserID    int64
	Token     string
	UserAgent string
	ClientIP  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func scanSession(row interface{ Scan(...any) error }, s *models.Session) error {
	return row.Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&s.UserAgent,
		&s.ClientIP,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, token, user_agent, client_ip, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + sessionColumns

	var s models.Session
	err := scanSession(q.db.QueryRow(ctx, query,
		arg.ID, arg.UserID, arg.Token, arg.UserAgent, arg.ClientIP, arg.ExpiresAt, arg.CreatedAt,
	), &s)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", translateError(err))
	}
	return &s, nil
}

// GetSessionByToken returns the stored row regardless of expiry; callers
// decide validity against their own clock.
func (q *Queries) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`

	var s models.Session
	if err := scanSession(q.db.QueryRow(ctx, query, token), &s); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (q *Queries) ListSessionsForUser(ctx context.Context, userID int64, now time.Time) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := q.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := scanSession(rows, &s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if sessions == nil {
		return []models.Session{}, nil
	}

	return sessions, nil
}

func (q *Queries) DeleteSessionByToken(ctx context.Context, token string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (q *Queries) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID int64) (bool, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (q *Queries) DeleteAllSessionsForUser(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
