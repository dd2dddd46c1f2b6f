package items

import (
	"context"

	"item-server/internal/database"
	"item-server/internal/models"

	"github.com/google/uuid"
)

// Queries is the slice of the database layer the item service runs on.
type Queries interface {
	CreateItem(ctx context.Context, arg database.CreateItemParams) (*models.Item, error)
	ListItemsByOwner(ctx context.Context, ownerID int64, limit int, offset int) ([]models.Item, error)
	CountItemsByOwner(ctx context.Context, ownerID int64) (int64, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error)
	UpdateItem(ctx context.Context, arg database.UpdateItemParams) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)
	LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) (*models.Event, error)
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
