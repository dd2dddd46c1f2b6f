// Package session owns the durable session records: it issues opaque tokens,
// resolves them to users and destroys them.
package session

import (
	"context"
	"fmt"
	"time"

	"item-server/internal/apperr"
	"item-server/internal/database"
	"item-server/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultTTL = 30 * 24 * time.Hour

// Repository is the persistence surface the store needs. *database.Store
// satisfies it.
type Repository interface {
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (*models.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	ListSessionsForUser(ctx context.Context, userID int64, now time.Time) ([]models.Session, error)
	DeleteSessionByToken(ctx context.Context, token string) error
	DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID int64) (bool, error)
	DeleteAllSessionsForUser(ctx context.Context, userID int64) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Metadata describes the client a session was issued to.
type Metadata struct {
	UserAgent string
	ClientIP  string
}

type Store struct {
	repo     Repository
	ttl      time.Duration
	now      func() time.Time
	newToken TokenGenerator
	log      zerolog.Logger
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithTokenGenerator(gen TokenGenerator) Option {
	return func(s *Store) { s.newToken = gen }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(repo Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo: repo,
		ttl:  DefaultTTL,
		now:  time.Now,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newToken == nil {
		gen, err := NewTokenGenerator()
		if err != nil {
			return nil, err
		}
		s.newToken = gen
	}
	return s, nil
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create issues a new session for userID that expires TTL from now.
func (s *Store) Create(ctx context.Context, userID int64, meta Metadata) (*models.Session, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.now()
	sess, err := s.repo.CreateSession(ctx, database.CreateSessionParams{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int64("user_id", userID).Str("session_id", sess.ID.String()).Msg("session created")
	return sess, nil
}

// Resolve maps a token to its user. Unknown and expired tokens both yield
// apperr.ErrUnauthenticated, and neither case touches the stored rows.
func (s *Store) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, apperr.ErrUnauthenticated
	}

	sess, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	if sess == nil || !sess.ValidAt(s.now()) {
		return 0, apperr.ErrUnauthenticated
	}

	return sess.UserID, nil
}

// Destroy deletes the session behind token. Unknown tokens are not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteSessionByToken(ctx, token); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID int64) ([]models.Session, error) {
	return s.repo.ListSessionsForUser(ctx, userID, s.now())
}

// DestroyByID removes one of userID's own sessions; someone else's session
// reports apperr.ErrNotFound exactly like a missing one.
func (s *Store) DestroyByID(ctx context.Context, userID int64, sessionID uuid.UUID) error {
	deleted, err := s.repo.DeleteSessionByID(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("destroy session by id: %w", err)
	}
	if !deleted {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) DestroyAll(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteAllSessionsForUser(ctx, userID); err != nil {
		return fmt.Errorf("destroy all sessions: %w", err)
	}
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}

// RunPurger deletes expired sessions every interval until ctx is done.
func (s *Store) RunPurger(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("failed to purge expired sessions")
				continue
			}
			if n > 0 {
				s.log.Info().Int64("count", n).Msg("purged expired sessions")
			}
		}
	}
}
