package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/votetripling/ambassador-api/internal/api/shared/errors"
	"github.com/votetripling/ambassador-api/internal/logger"
)

// respondError maps err to its response. Unexpected errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status, apiErr, known := apierrors.FromError(err)
	if !known {
		logger.ErrorCtx(c.Request.Context(), err,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.JSON(status, apiErr)
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(message))
}
