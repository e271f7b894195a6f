package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
)

// TokenManager проверяет access-токены ролевой поверхности API. Выпуск
// токенов живёт в отдельном сервисе аутентификации; здесь выпуск оставлен
// для тестов и dev-окружения.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
}

func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CreateAccess выпускает access-токен с ролью.
func (m *TokenManager) CreateAccess(userID uuid.UUID, role statemachine.Role) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAccess проверяет токен и возвращает идентификатор пользователя и роль.
func (m *TokenManager) ParseAccess(raw string) (uuid.UUID, statemachine.Role, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("токен невалиден: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("некорректный subject: %w", err)
	}

	role := statemachine.Role(claims.Role)
	if !role.IsValid() || role == statemachine.RoleSystem {
		return uuid.Nil, "", fmt.Errorf("некорректная роль %q", claims.Role)
	}
	return userID, role, nil
}
