package items

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"item-server/internal/database"
	"item-server/internal/models"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store. RunInTx snapshots the state and
// restores it when fn fails, which is enough to observe rollbacks.
type memoryStore struct {
	mu     sync.Mutex
	items  map[uuid.UUID]models.Item
	events []models.Event
	clock  time.Time

	lastOffset int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		items: make(map[uuid.UUID]models.Item),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *memoryStore) RunInTx(_ context.Context, fn func(Queries) error) error {
	m.mu.Lock()
	items := make(map[uuid.UUID]models.Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	events := append([]models.Event(nil), m.events...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.items = items
		m.events = events
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryStore) CreateItem(_ context.Context, arg database.CreateItemParams) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	item := models.Item{
		ID:          arg.ID,
		OwnerID:     arg.OwnerID,
		Name:        arg.Name,
		Description: arg.Description,
		Category:    arg.Category,
		ImageURL:    arg.ImageURL,
		Quantity:    arg.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.items[item.ID] = item
	return &item, nil
}

func (m *memoryStore) ListItemsByOwner(_ context.Context, ownerID int64, limit int, offset int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOffset = offset
	out := []models.Item{}
	for _, item := range m.items {
		if item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []models.Item{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) CountItemsByOwner(_ context.Context, ownerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) GetItemByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *memoryStore) GetItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return m.GetItemByID(ctx, id)
}

func (m *memoryStore) UpdateItem(_ context.Context, arg database.UpdateItemParams) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[arg.ID]
	if !ok {
		return nil, nil
	}
	if arg.Name != nil {
		item.Name = *arg.Name
	}
	item.Description = applyOptional(item.Description, arg.Description)
	item.Category = applyOptional(item.Category, arg.Category)
	item.ImageURL = applyOptional(item.ImageURL, arg.ImageURL)
	if arg.Quantity != nil {
		item.Quantity = *arg.Quantity
	}
	item.UpdatedAt = m.tick()
	m.items[arg.ID] = item
	return &item, nil
}

func applyOptional(current, update *string) *string {
	if update == nil {
		return current
	}
	if *update == "" {
		return nil
	}
	v := *update
	return &v
}

func (m *memoryStore) DeleteItem(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memoryStore) LogEvent(_ context.Context, _ int64, eventType string, payload interface{}) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	event := models.Event{
		ID:        int64(len(m.events) + 1),
		EventType: eventType,
		EventTime: m.tick(),
		Payload:   data,
	}
	m.events = append(m.events, event)
	return &event, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[int64][]string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[int64][]string)}
}

func (p *recordingPublisher) PublishEvent(userID int64, event *models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event.EventType)
}
