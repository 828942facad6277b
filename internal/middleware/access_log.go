package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/handbook/internal/response"
)

// AccessLog writes one structured line per request. Server errors are logged
// at error level, client errors at warn, everything else at debug.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Debug()
		}

		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("request_id", response.RequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
