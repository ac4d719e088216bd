// Package middleware provides shared Gin middleware for the HTTP layer.
package middleware

import (
	"context"
	"time"

	"outreach_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID assigns a request ID to every request and stores it in the
// request context so downstream log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogger logs each request with method, path, status and latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := float64(time.Since(start).Microseconds()) / 1000.0
		reqLog := log.WithContext(c.Request.Context())

		if len(c.Errors) > 0 {
			reqLog.HTTPError(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.Errors.Last(), c.ClientIP())
			return
		}
		reqLog.HTTPRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), latency, c.ClientIP())
	}
}
