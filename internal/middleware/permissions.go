package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userhub/api/internal/models"
)

// Permission names one resource:action a route requires.
type Permission struct {
	Resource string
	Action   string
}

// RequirePermissions rejects unless the attached user holds a role granting
// every listed permission. With no permissions listed the route is open to
// any authenticated user.
func RequirePermissions(required ...Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(required) == 0 {
			c.Next()
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if user.Role == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		perms := user.Role.Permissions
		if perms == nil {
			perms = models.PermissionMap{}
		}
		for _, p := range required {
			if !perms.Allows(p.Resource, p.Action) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Next()
	}
}
