package database

import (
	"context"
	"fmt"

	"item-server/internal/models"

	"github.com/google/uuid"
)

const itemColumns = `id, owner_id, name, description, category, image_url, quantity, created_at, updated_at`

type CreateItemParams struct {
	ID          uuid.UUID
	OwnerID     int64
	Name        string
	Description *string
	Category    *string
	ImageURL    *string
	Quantity    int
}

// UpdateItemParams carries a partial update. A nil field is left unchanged;
// an empty optional string clears the column.
type UpdateItemParams struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Category    *string
	ImageURL    *string
	Quantity    *int
}

func scanItem(row interface{ Scan(...any) error }, item *models.Item) error {
	return row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.ImageURL,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (*models.Item, error) {
	query := `
		INSERT INTO items (id, owner_id, name, description, category, image_url, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + itemColumns

	var item models.Item
	err := scanItem(q.db.QueryRow(ctx, query,
		arg.ID, arg.OwnerID, arg.Name, arg.Description, arg.Category, arg.ImageURL, arg.Quantity,
	), &item)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", translateError(err))
	}
	return &item, nil
}

func (q *Queries) ListItemsByOwner(ctx context.Context, ownerID int64, limit int, offset int) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if items == nil {
		return []models.Item{}, nil
	}

	return items, nil
}

func (q *Queries) CountItemsByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE owner_id = $1`, ownerID).Scan(&total)
	return total, err
}

// GetItemByID looks the item up without any owner filter; ownership is
// decided by the caller so that "missing" and "foreign" stay indistinguishable.
func (q *Queries) GetItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return q.getItem(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetItemByIDForUpdate is GetItemByID with a row lock; use it inside ExecTx.
func (q *Queries) GetItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return q.getItem(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

func (q *Queries) getItem(ctx context.Context, query string, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := scanItem(q.db.QueryRow(ctx, query, id), &item); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (*models.Item, error) {
	query := `
		UPDATE items SET
			name        = COALESCE($2, name),
			description = CASE WHEN $3::text IS NULL THEN description ELSE NULLIF($3, '') END,
			category    = CASE WHEN $4::text IS NULL THEN category ELSE NULLIF($4, '') END,
			image_url   = CASE WHEN $5::text IS NULL THEN image_url ELSE NULLIF($5, '') END,
			quantity    = COALESCE($6, quantity),
			updated_at  = clock_timestamp()
		WHERE id = $1
		RETURNING ` + itemColumns

	var item models.Item
	err := scanItem(q.db.QueryRow(ctx, query,
		arg.ID, arg.Name, arg.Description, arg.Category, arg.ImageURL, arg.Quantity,
	), &item)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update item: %w", translateError(err))
	}
	return &item, nil
}

func (q *Queries) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
