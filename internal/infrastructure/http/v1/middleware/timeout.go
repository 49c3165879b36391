package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	appctx "tourdesk/internal/core/context"
)

// RequestClock pins the time the request was received and bounds its
// lifetime. Reports resolve their period against the pinned time; queries
// still running at the deadline fail as reporting-unavailable.
func RequestClock(timeout time.Duration, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		ctx := appctx.WithRequestTime(c.Request.Context(), now())

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
