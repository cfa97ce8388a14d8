package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/api/shared/constants"
	apierrors "github.com/votetripling/ambassador-api/internal/api/shared/errors"
	"github.com/votetripling/ambassador-api/internal/logger"
)

// RequestScope tags the request context with a request id so errors reported while serving it can be correlated
func RequestScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.REQUEST_ID_HEADER)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(constants.REQUEST_ID_HEADER, requestID)

		ctx := logger.WithScope(c.Request.Context(), logger.Scope{
			RequestID: requestID,
			Route:     c.FullPath(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// PrincipalScope adds the authenticated caller to the request scope. It must run after Auth.
func PrincipalScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, ok := GetPrincipal(c); ok {
			ctx := logger.WithScope(c.Request.Context(), logger.Scope{
				RequestID:    c.Writer.Header().Get(constants.REQUEST_ID_HEADER),
				Role:         string(principal.Role),
				AmbassadorID: principal.AmbassadorID,
				Route:        c.FullPath(),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// Logger returns a gin middleware for structured logging using zap
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.InfoCtx(c.Request.Context(), "API request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// Recovery returns a gin middleware for panic recovery with logging
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorCtx(c.Request.Context(), fmt.Errorf("panic recovered: %v", err),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierrors.NewInternalError("Internal server error"))
			}
		}()
		c.Next()
	}
}
