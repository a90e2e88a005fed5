package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pablogaravito/psm1-exam-simulator/internal/response"
	"github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request. Routes are logged
// by their pattern so question indices do not explode the key space.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqID, _ := c.Get(response.ContextKeyRequestID)
		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0

		var ev *zerolog.Event
		switch status := c.Writer.Status(); {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Debug()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.Interface("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Float64("latency_ms", latencyMS).
			Str("remote_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
