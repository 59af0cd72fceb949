package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resumematch-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		fields := map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if userID := c.GetInt64(userIDKey); userID != 0 {
			fields["user_id"] = userID
		}
		if resumeID := c.GetInt64("resumeId"); resumeID != 0 {
			fields["resume_id"] = resumeID
		}
		if jobID := c.GetInt64("jobId"); jobID != 0 {
			fields["job_id"] = jobID
		}

		telemetry.Info("request.complete", fields)
	}
}
