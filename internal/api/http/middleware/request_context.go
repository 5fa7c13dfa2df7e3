package middleware

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey int

const (
	requestIDCtxKey ctxKey = iota
	actorIDCtxKey
)

// RequestContextMiddleware stamps each request with a request id and
// the acting user. The id is taken from X-Request-Id or generated; the
// actor from X-Actor-Id, set by the upstream identity proxy. Both land
// in the gin context — work-item creation defaults the reporter to the
// actor — and in the request context for log correlation.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if rid == "" {
			rid = uuid.New().String()
		}
		actor := strings.TrimSpace(c.GetHeader("X-Actor-Id"))

		c.Set("request_id", rid)
		if actor != "" {
			c.Set("actor_id", actor)
		}

		ctx := context.WithValue(c.Request.Context(), requestIDCtxKey, rid)
		if actor != "" {
			ctx = context.WithValue(ctx, actorIDCtxKey, actor)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-Id", rid)

		start := time.Now()
		c.Next()

		log.Printf("[http] rid=%s actor=%s method=%s path=%s status=%d latency=%s",
			rid, orDash(actor), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDCtxKey).(string)
	return v
}

// ActorID returns the acting user id carried by ctx, or "".
func ActorID(ctx context.Context) string {
	v, _ := ctx.Value(actorIDCtxKey).(string)
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
