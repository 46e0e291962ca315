// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"junketops-service/internal/pkg/response"
)

// RateLimitMiddleware bounds the aggregate request rate. The dashboard
// fronts a slow upstream, so one shared bucket protecting it matters
// more than per-client fairness.
func RateLimitMiddleware(every time.Duration, burst int, logger *zap.Logger) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(every), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.Warn("rate limit exceeded",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			response.TooManyRequests(c, "too many requests")
			return
		}
		c.Next()
	}
}
