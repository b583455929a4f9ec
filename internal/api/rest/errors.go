package rest

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sbt/internal/api/shared/errors"
	"github.com/feral-file/ff-sbt/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, errors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, errors.NewNotFoundError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, errors.NewValidationError(message))
}

// respondExecutorError maps an executor error to its status code.
// Errors that are not an APIError become a generic internal error.
func respondExecutorError(c *gin.Context, err error, message string) {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("message", message))
		c.JSON(http.StatusInternalServerError, errors.NewInternalError(message))
		return
	}

	status := http.StatusInternalServerError
	switch apiErr.Code {
	case errors.ErrCodeBadRequest:
		status = http.StatusBadRequest
	case errors.ErrCodeValidationFailed:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeConflict:
		status = http.StatusConflict
	case errors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.ErrCodeServiceError:
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("message", message))
	}
	c.JSON(status, apiErr)
}
