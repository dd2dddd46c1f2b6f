// Package otp sends and checks one-time codes delivered by SMS.
package otp

import (
	"context"
	"errors"
	"fmt"

	"item-server/internal/apperr"
	"item-server/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ErrInvalidCode means the code was wrong, expired or already used.
var ErrInvalidCode = errors.New("invalid one-time code")

// Result is the outcome of a successful verification.
type Result struct {
	Verified bool
	Phone    string
}

type Provider interface {
	// Send delivers a code to phone and returns the handle to verify it with.
	Send(ctx context.Context, phone string) (methodID string, err error)
	Verify(ctx context.Context, methodID, code string) (Result, error)
}

var validate = validator.New()

// ValidatePhone accepts E.164 numbers only, with the same rule the
// registration form uses.
func ValidatePhone(phone string) error {
	if err := validate.Var(phone, "required,e164"); err != nil {
		return apperr.Validation("phone", "must be an E.164 phone number")
	}
	return nil
}

// New builds the provider named in cfg.
func New(cfg config.OTPConfig, log zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogProvider(log), nil
	case "stytch":
		return NewStytchClient(cfg.Stytch, nil)
	default:
		return nil, fmt.Errorf("otp: unknown provider %q", cfg.Provider)
	}
}
