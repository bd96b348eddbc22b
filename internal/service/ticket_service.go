package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prepline/examroom/internal/config"
)

// Common ticket errors.
var (
	ErrTicketInvalid = errors.New("invalid session ticket")
	ErrTicketExpired = errors.New("expired session ticket")
)

// TicketClaims binds a ticket to one session. The ticket is minted when
// the session is created and is the only credential the client holds.
type TicketClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// TicketService mints and validates the per-session bearer tickets.
type TicketService struct {
	cfg *config.Config
}

// NewTicketService creates a new TicketService.
func NewTicketService(cfg *config.Config) *TicketService {
	return &TicketService{cfg: cfg}
}

// Issue creates a signed ticket for a session.
func (s *TicketService) Issue(sessionID uuid.UUID) (string, error) {
	now := time.Now()

	claims := TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TicketExpiry)),
		},
		SessionID: sessionID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TicketSecret))
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Validate parses a ticket and returns the session id it is bound to.
func (s *TicketService) Validate(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TicketClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.TicketSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTicketExpired
		}
		return uuid.Nil, ErrTicketInvalid
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrTicketInvalid
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, ErrTicketInvalid
	}
	return sessionID, nil
}
