package models

import (
	"time"

	"github.com/google/uuid"
)

type Item struct {
	ID          uuid.UUID `json:"id" example:"0b6a3f4e-8a43-4d5e-9d0f-2f6c1f0d9a11"`
	OwnerID     int64     `json:"owner_id" example:"1"`
	Name        string    `json:"name" example:"Widget"`
	Description *string   `json:"description,omitempty" example:"Blue, slightly scratched"`
	Category    *string   `json:"category,omitempty" example:"tools"`
	ImageURL    *string   `json:"image_url,omitempty" example:"https://cdn.example.com/widget.png"`
	Quantity    int       `json:"quantity" example:"1"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
