package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vm-affekt/mediagrab/internal/logging"
	"go.uber.org/zap"
)

// requestLogger puts a request scoped logger into the request context and logs
// every request once it is handled.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx := logging.NewContextS(c.Request.Context(),
			"request_id", uuid.NewString(),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		logging.FromContext(ctx).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("body_size", c.Writer.Size()),
		)
	}
}
