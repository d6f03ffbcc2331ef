package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"formfill/services"
	"formfill/utils"
)

const (
	userKeyContextKey   = "user_key"
	userEmailContextKey = "user_email"
)

// AuthMiddleware validates the bearer token and stores the caller's user key
// in the gin context
func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			utils.UnauthorizedError(c, "Authorization header required")
			c.Abort()
			return
		}
		tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			utils.LogWarn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			utils.UnauthorizedError(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(userKeyContextKey, claims.UserKey)
		c.Set(userEmailContextKey, claims.Email)
		c.Next()
	}
}

// UserKey returns the authenticated caller's user key
func UserKey(c *gin.Context) (string, bool) {
	key := c.GetString(userKeyContextKey)
	return key, key != ""
}
