package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey       = "userID"
	ContextRoleKey         = "role"
	ContextProProfileIDKey = "proProfileID"
)

// ProProfileResolver находит платёжный профиль исполнителя по user id.
type ProProfileResolver interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProProfile, error)
}

// AuthMiddleware проверяет JWT access токен и кладёт личность в контекст.
// Для роли pro дополнительно резолвится платёжный профиль.
func AuthMiddleware(tokens *service.TokenManager, profiles ProProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, role, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, string(role))

		if role == statemachine.RolePro && profiles != nil {
			profile, err := profiles.GetByUserID(c.Request.Context(), userID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "профиль исполнителя не найден"})
				return
			}
			c.Set(ContextProProfileIDKey, profile.ID)
		}

		c.Next()
	}
}

// RequireRole пропускает только перечисленные роли.
func RequireRole(roles ...statemachine.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}
		current, _ := raw.(string)
		for _, role := range roles {
			if current == string(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "недостаточно прав"})
	}
}
