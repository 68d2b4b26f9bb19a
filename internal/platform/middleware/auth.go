package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estatehub/service-scheduling/internal/platform/auth"
)

const authContextKey = "auth_context"

// AuthMiddleware verifies the bearer token and stores the resolved
// auth.Context on the gin context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		actor, err := auth.ContextFromClaims(claims)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(authContextKey, actor)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetAuthContext(c)
		if !ok {
			abortUnauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   gin.H{"code": "FORBIDDEN", "message": "insufficient role"},
		})
	}
}

// GetAuthContext returns the caller identity set by AuthMiddleware.
func GetAuthContext(c *gin.Context) (auth.Context, bool) {
	v, exists := c.Get(authContextKey)
	if !exists {
		return auth.Context{}, false
	}
	actor, ok := v.(auth.Context)
	return actor, ok
}

// GetUserID returns the caller's user ID.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	actor, ok := GetAuthContext(c)
	if !ok {
		return uuid.Nil, false
	}
	return actor.UserID, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": message},
	})
}
