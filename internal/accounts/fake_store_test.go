package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"item-server/internal/apperr"
	"item-server/internal/database"
	"item-server/internal/models"
	"item-server/internal/otp"
)

type memoryStore struct {
	mu         sync.Mutex
	users      map[int64]models.User
	identities map[string]models.Identity
	nextID     int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[int64]models.User{}, identities: map[string]models.Identity{}}
}

func (m *memoryStore) RunInTx(_ context.Context, fn func(Queries) error) error {
	return fn(m)
}

func (m *memoryStore) CreateUser(_ context.Context, arg database.CreateUserParams) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, arg.Email) {
			return nil, &apperr.ConflictError{Field: "email"}
		}
		if arg.Phone != nil && u.Phone != nil && *u.Phone == *arg.Phone {
			return nil, &apperr.ConflictError{Field: "phone"}
		}
	}
	m.nextID++
	u := models.User{
		ID:           m.nextID,
		Email:        arg.Email,
		Phone:        arg.Phone,
		PasswordHash: arg.PasswordHash,
		DisplayName:  arg.DisplayName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *memoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) GetUserByPhone(_ context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) SetUserPhone(_ context.Context, userID int64, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != userID && u.Phone != nil && *u.Phone == phone {
			return &apperr.ConflictError{Field: "phone"}
		}
	}
	u := m.users[userID]
	u.Phone = &phone
	m.users[userID] = u
	return nil
}

func (m *memoryStore) DeleteUser(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *memoryStore) GetIdentity(_ context.Context, provider, providerUserID string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.identities[provider+"|"+providerUserID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (m *memoryStore) CreateIdentity(_ context.Context, userID int64, provider, providerUserID string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := provider + "|" + providerUserID
	if _, ok := m.identities[key]; ok {
		return nil, &apperr.ConflictError{Field: "identity"}
	}
	id := models.Identity{ID: int64(len(m.identities) + 1), UserID: userID, Provider: provider, ProviderUserID: providerUserID}
	m.identities[key] = id
	return &id, nil
}

// fixedOTP accepts "123456" for any method and reports the phone it was
// sent to.
type fixedOTP struct {
	sent map[string]string
}

func newFixedOTP() *fixedOTP {
	return &fixedOTP{sent: map[string]string{}}
}

func (f *fixedOTP) Send(_ context.Context, phone string) (string, error) {
	methodID := "phone-" + phone
	f.sent[methodID] = phone
	return methodID, nil
}

func (f *fixedOTP) Verify(_ context.Context, methodID, code string) (otp.Result, error) {
	phone, ok := f.sent[methodID]
	if !ok || code != "123456" {
		return otp.Result{}, otp.ErrInvalidCode
	}
	return otp.Result{Verified: true, Phone: phone}, nil
}
