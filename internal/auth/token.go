package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mbops/stockroom/internal/domain/users"
)

var ErrInvalidToken = errors.New("invalid session token")

// Actor — сотрудник, действующий в рамках запроса.
type Actor struct {
	UserID int64
	Login  string
	Name   string
	Role   users.Role
}

func (a *Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Login
}

func (a *Actor) Privileged() bool { return a.Role == users.RoleAdmin }

type claims struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService подписывает и проверяет сессионные токены (HS256).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(u *users.User) (string, error) {
	now := time.Now()
	c := claims{
		Login: u.Login,
		Name:  u.FullName,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *TokenService) Parse(token string) (*Actor, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	var uid int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &uid); err != nil {
		return nil, ErrInvalidToken
	}
	return &Actor{UserID: uid, Login: c.Login, Name: c.Name, Role: users.Role(c.Role)}, nil
}
