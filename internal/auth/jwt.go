package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
)

// Claims carried by a session token. The token holds the exported identity
// only, never the credential secret.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed session tokens. The session survives
// process restarts until the token expires or the client discards it.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

func (m *Manager) Issue(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses a token and returns the user it belongs to. Any malformed,
// tampered or expired token is an error; callers treat that as signed out.
func (m *Manager) Verify(token string) (*domain.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid session token")
	}
	return &domain.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}
