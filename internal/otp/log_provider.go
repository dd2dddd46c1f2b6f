package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	codeTTL     = 10 * time.Minute
	maxAttempts = 5
)

type pendingCode struct {
	phone     string
	code      string
	expiresAt time.Time
	attempts  int
}

// LogProvider writes codes to the log instead of sending an SMS. It is meant
// for local development and tests.
type LogProvider struct {
	mu      sync.Mutex
	pending map[string]*pendingCode
	log     zerolog.Logger
	now     func() time.Time
}

func NewLogProvider(log zerolog.Logger) *LogProvider {
	return &LogProvider{
		pending: make(map[string]*pendingCode),
		log:     log,
		now:     time.Now,
	}
}

func (p *LogProvider) Send(_ context.Context, phone string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	methodID := "phone-" + uuid.NewString()

	p.mu.Lock()
	now := p.now()
	for id, pc := range p.pending {
		if !now.Before(pc.expiresAt) {
			delete(p.pending, id)
		}
	}
	p.pending[methodID] = &pendingCode{phone: phone, code: code, expiresAt: now.Add(codeTTL)}
	p.mu.Unlock()

	p.log.Info().Str("phone", phone).Str("method_id", methodID).Str("code", code).Msg("one-time code issued")
	return methodID, nil
}

func (p *LogProvider) Verify(_ context.Context, methodID, code string) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pc, ok := p.pending[methodID]
	if !ok {
		return Result{}, ErrInvalidCode
	}
	if !p.now().Before(pc.expiresAt) {
		delete(p.pending, methodID)
		return Result{}, ErrInvalidCode
	}

	if subtle.ConstantTimeCompare([]byte(pc.code), []byte(code)) != 1 {
		pc.attempts++
		if pc.attempts >= maxAttempts {
			delete(p.pending, methodID)
		}
		return Result{}, ErrInvalidCode
	}

	delete(p.pending, methodID)
	return Result{Verified: true, Phone: pc.phone}, nil
}
