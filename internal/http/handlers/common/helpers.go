package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/dto"
	"github.com/hogarya/hogarya-backend/internal/http/middleware"
	"github.com/hogarya/hogarya-backend/internal/service"
)

var (
	ErrUserNotFound = errors.New("пользователь не найден в контексте")
	ErrInvalidUUID  = errors.New("неверный формат UUID")
)

// CurrentUserID извлекает идентификатор пользователя из контекста.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}
	return userID, nil
}

// CurrentActor собирает актора доменных операций из контекста запроса.
func CurrentActor(c *gin.Context) (service.Actor, error) {
	userID, err := CurrentUserID(c)
	if err != nil {
		return service.Actor{}, err
	}

	rawRole, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return service.Actor{}, ErrUserNotFound
	}
	role, ok := rawRole.(string)
	if !ok {
		return service.Actor{}, ErrUserNotFound
	}

	actor := service.Actor{UserID: userID, Role: statemachine.Role(role)}
	if raw, exists := c.Get(middleware.ContextProProfileIDKey); exists {
		if proID, ok := raw.(uuid.UUID); ok {
			actor.ProProfileID = &proID
		}
	}
	return actor, nil
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}
	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}
	return parsed, nil
}

// RespondError отправляет единый формат ошибки.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message})
}

func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// ParseIntQuery читает целочисленный query-параметр с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination извлекает limit и offset с ограничениями по умолчанию.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 || limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
