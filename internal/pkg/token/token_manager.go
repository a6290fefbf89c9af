package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer is the pluggable token capability: issuing and verifying bearer
// tokens plus minting opaque refresh tokens. Swapping the algorithm means
// swapping the implementation, not the callers.
type Signer interface {
	Issue(userId uuid.UUID) (string, error)
	Verify(tokenStr string) (uuid.UUID, error)
	RefreshTTL() time.Duration
	NewRefreshToken() (raw string, hash string)
}

// ErrInvalidToken is the single error surfaced for any verification failure
// (bad signature, expired, malformed). The wrapped cause carries the real
// reason so callers can log it without leaking it to the client.
var ErrInvalidToken = errors.New("invalid or expired token")

type AccessClaims struct {
	jwt.RegisteredClaims
}

// Manager signs and verifies access tokens (HS256) and generates opaque
// refresh tokens. Verify is the one checkpoint every request passes through,
// so a revocation list can be bolted on here later without touching callers.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

var _ Signer = &Manager{}

func NewManager(secret string, accessTTLMin, refreshTTLDays int) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMin) * time.Minute,
		refreshTTL: time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

func (m *Manager) Issue(userId uuid.UUID) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) Verify(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	userId, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userId, nil
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// NewRefreshToken returns the raw token handed to the client and the sha256
// hex digest persisted in its place.
func (m *Manager) NewRefreshToken() (raw string, hash string) {
	raw = uuid.New().String()
	return raw, HashRefreshToken(raw)
}

func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
