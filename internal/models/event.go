package models

import (
	"encoding/json"
	"time"
)

const (
	EventItemCreated = "item_created"
	EventItemUpdated = "item_updated"
	EventItemDeleted = "item_deleted"
)

type Event struct {
	ID        int64           `json:"id" example:"123"`
	EventType string          `json:"event_type" example:"item_created"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload" swaggertype:"object"`
}
