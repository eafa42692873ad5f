package domain

import (
	"context"
	"time"
)

// Учётные записи администраторов живут вне сервиса: здесь только проверка
// выданных токенов, роль и отзыв.

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Token string

type TokenClaims struct {
	JTI       string // уникальный id токена
	UserID    UserID
	Login     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Проверенная личность вызывающего
type Identity struct {
	UserID UserID `json:"id"`
	Login  string `json:"login"`
	Role   Role   `json:"role"`
}

type TokenManager interface {
	Issue(ctx context.Context, id Identity) (Token, TokenClaims, error)
	Parse(ctx context.Context, t Token) (TokenClaims, error)
}

// Блэклист/ревокация токенов (Redis)
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
