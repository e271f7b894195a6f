package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
)

// respondServiceError переводит ошибку сервиса в HTTP-ответ: AppError несёт
// собственный статус и код, остальное маскируется как 500.
func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": string(appErr.Code)})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
}
