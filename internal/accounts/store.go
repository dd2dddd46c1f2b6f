package accounts

import (
	"context"

	"item-server/internal/database"
	"item-server/internal/models"
)

type Queries interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	SetUserPhone(ctx context.Context, userID int64, phone string) error
	DeleteUser(ctx context.Context, id int64) (bool, error)
	GetIdentity(ctx context.Context, provider string, providerUserID string) (*models.Identity, error)
	CreateIdentity(ctx context.Context, userID int64, provider string, providerUserID string) (*models.Identity, error)
}

type Store interface {
	Queries
	RunInTx(ctx context.Context, fn func(Queries) error) error
}

// PostgresStore adapts *database.Store to Store.
type PostgresStore struct {
	*database.Store
}

func NewPostgresStore(store *database.Store) *PostgresStore {
	return &PostgresStore{Store: store}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(Queries) error) error {
	return s.ExecTx(ctx, func(q *database.Queries) error {
		return fn(q)
	})
}
