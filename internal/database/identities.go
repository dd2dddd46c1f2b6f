package database

import (
	"context"
	"fmt"

	"item-server/internal/models"
)

func (q *Queries) GetIdentity(ctx context.Context, provider string, providerUserID string) (*models.Identity, error) {
	query := `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM identities
		WHERE provider = $1 AND provider_user_id = $2
	`
	var identity models.Identity
	err := q.db.QueryRow(ctx, query, provider, providerUserID).Scan(
		&identity.ID,
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderUserID,
		&identity.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (q *Queries) CreateIdentity(ctx context.Context, userID int64, provider string, providerUserID string) (*models.Identity, error) {
	query := `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, provider, provider_user_id, created_at
	`
	var identity models.Identity
	err := q.db.QueryRow(ctx, query, userID, provider, providerUserID).Scan(
		&identity.ID,
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderUserID,
		&identity.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", translateError(err))
	}
	return &identity, nil
}
