package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/logging"
)

const TraceHeader = "X-Trace-ID"

// TraceID reuses an incoming trace id or mints one, and attaches a request
// scoped log entry carrying it.
func TraceID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(httpx.TraceIDKey, id)
		c.Header(TraceHeader, id)
		logging.Attach(c, log.WithField("trace_id", id))
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logging.FromGin(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("request served")
			return
		}
		entry.Info("request served")
	}
}

// ErrorDetails controls whether error bodies carry the internal cause.
func ErrorDetails(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httpx.ExposeDetailsKey, expose)
		c.Next()
	}
}
