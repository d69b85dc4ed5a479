package httpx

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("rid", c.GetString("rid")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// AdminAuth guards admin console routes with the X-Admin-Key header,
// compared against a bcrypt hash. An empty hash disables the check.
func AdminAuth(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if keyHash == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
			Abort(c, Unauthorized("admin key required"))
			return
		}
		c.Set("actor", "admin")
		c.Next()
	}
}

// CheckAdminKey reports at startup whether admin routes are guarded. An
// empty hash is logged as a warning, and a hash bcrypt cannot read is logged
// as an error since it locks every admin request out.
func CheckAdminKey(keyHash string, logger *zap.Logger) bool {
	if keyHash == "" {
		logger.Warn("ADMIN_KEY_HASH is empty, admin routes accept any caller")
		return false
	}
	if _, err := bcrypt.Cost([]byte(keyHash)); err != nil {
		logger.Error("ADMIN_KEY_HASH is not a bcrypt hash, admin requests will be rejected", zap.Error(err))
	}
	return true
}

// Actor is who the audit trail attributes the request to.
func Actor(c *gin.Context) string {
	if a := c.GetString("actor"); a != "" {
		return a
	}
	return "anonymous"
}
