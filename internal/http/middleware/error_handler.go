package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hogarya/hogarya-backend/internal/logger"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: AppError превращается
// в свой HTTP-статус и код, всё остальное маскируется как 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("ошибка обработки запроса")

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": string(appErr.Code)})
			return
		}

		message := "внутренняя ошибка сервера"
		if !containsInternalKeywords(err.Error()) {
			message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

// containsInternalKeywords: такие ошибки наружу не отдаются.
func containsInternalKeywords(s string) bool {
	keywords := []string{"sql:", "database", "connection", "timeout", "panic", "runtime"}
	lower := strings.ToLower(s)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
