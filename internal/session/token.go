package session

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// TokenLength is the number of characters in a session token. The nanoid
// alphabet carries 6 bits per character, so 48 characters give 288 bits.
const TokenLength = 48

// TokenGenerator returns a fresh, unguessable session token.
type TokenGenerator func() (string, error)

func NewTokenGenerator() (TokenGenerator, error) {
	generate, err := nanoid.Standard(TokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}
	return func() (string, error) {
		return generate(), nil
	}, nil
}
