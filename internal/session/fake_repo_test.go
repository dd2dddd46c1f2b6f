package session

import (
	"context"
	"sync"
	"time"

	"item-server/internal/database"
	"item-server/internal/models"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	reads    int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sessions: make(map[string]models.Session)}
}

func (m *memoryRepo) CreateSession(_ context.Context, arg database.CreateSessionParams) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := models.Session{
		ID:        arg.ID,
		UserID:    arg.UserID,
		Token:     arg.Token,
		UserAgent: arg.UserAgent,
		ClientIP:  arg.ClientIP,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: arg.CreatedAt,
	}
	m.sessions[arg.Token] = s
	return &s, nil
}

func (m *memoryRepo) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memoryRepo) ListSessionsForUser(_ context.Context, userID int64, now time.Time) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Session{}
	for _, s := range m.sessions {
		if s.UserID == userID && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryRepo) DeleteSessionByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memoryRepo) DeleteSessionByID(_ context.Context, sessionID uuid.UUID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.ID == sessionID && s.UserID == userID {
			delete(m.sessions, token)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) DeleteAllSessionsForUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *memoryRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
