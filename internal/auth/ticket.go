package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ticketIssuer = "item-server"

var ErrEmptyTicketSecret = errors.New("ticket secret must not be empty")

// TicketClaims identify the user a websocket ticket was issued to.
type TicketClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Tickets signs and verifies the short-lived tokens that let a browser open
// a websocket without sending its session cookie cross-origin.
type Tickets struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTickets(secret string, ttl time.Duration) (*Tickets, error) {
	if secret == "" {
		return nil, ErrEmptyTicketSecret
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Tickets{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (t *Tickets) Issue(userID int64) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := &TicketClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ticketIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (t *Tickets) Verify(tokenString string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithIssuer(ticketIssuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TicketClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrInvalidKey
}
