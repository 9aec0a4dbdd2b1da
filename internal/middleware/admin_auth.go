package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/pkg/logger"
)

// AdminOnly gates the admin API: 401 for anonymous callers, 403 for
// authenticated non-admins. Must run after CurrentUser.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !user.IsAdmin {
			logger.L().Warn("non-admin blocked from admin route",
				zap.String("route", c.FullPath()),
				zap.Uint("user_id", user.ID),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
