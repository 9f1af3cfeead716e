package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// Paths that produce no useful request log. The websocket endpoint is
// excluded because c.Next() blocks for the connection's whole lifetime
// there, which would log sessions as one giant request.
var skipLogPaths = map[string]struct{}{
	"/health": {},
	"/ws":     {},
}

// GinMiddleware propagates a request id (from X-Request-ID or freshly
// generated), injects a request-scoped logger into the context, and logs
// the completed request with status, latency and the authenticated actor.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		if _, skip := skipLogPaths[c.Request.URL.Path]; skip {
			return
		}

		// Actor fields are set by the auth middleware, so read them after
		// the handler chain ran.
		evt := child.Info().
			Int(FieldStatus, c.Writer.Status()).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))

		if userID, ok := c.Get(FieldUserID); ok {
			evt = evt.Str(FieldUserID, userID.(string))
		}
		if username, ok := c.Get(FieldUsername); ok {
			evt = evt.Str(FieldUsername, username.(string))
		}

		evt.Msg("request completed")
	}
}
