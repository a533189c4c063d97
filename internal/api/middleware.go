package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	errx "github.com/aeg-helpline/server/internal/core/error"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// RequestID ensures every request has an ID for tracing and logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID extracts request_id from gin context when available.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logx.Info()
		switch {
		case status >= 500:
			ev = logx.Error()
		case status >= 400:
			ev = logx.Warn()
		}
		ev.Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

// ErrorHandler renders the last error attached by a handler. AppError values
// keep their status and safe message; anything else becomes a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		status := errx.StatusOf(last.Err)
		if status >= 500 {
			logx.Error().Err(last.Err).Str("request_id", GetRequestID(c)).Msg("request failed")
		}
		c.JSON(status, ErrorResponse{
			Error:     errx.MessageOf(last.Err),
			RequestID: GetRequestID(c),
		})
	}
}
