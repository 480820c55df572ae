package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/models"
)

const (
	// CallerKey is the context key for the authenticated caller
	CallerKey = "caller"
	// UserIDHeader carries the caller's user ID, set by the gateway
	UserIDHeader = "X-User-ID"
	// UserRoleHeader carries the caller's application role, set by the gateway
	UserRoleHeader = "X-User-Role"
)

// Identity reads the caller set by the authenticating gateway and rejects
// requests without one. Whether the role may act is decided later by the
// workflow machine.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(UserRoleHeader)))
		if userID == "" || role == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Caller identity is required")
			return
		}

		caller := models.Caller{ID: userID, Role: models.Role(role)}
		c.Set(CallerKey, caller)

		if log := GetLogger(c); log != nil {
			c.Set(LoggerKey, log.With(logger.Fields{
				"user_id": caller.ID,
				"role":    string(caller.Role),
			}))
		}

		c.Next()
	}
}

// GetCaller retrieves the caller stored by Identity.
func GetCaller(c *gin.Context) (models.Caller, bool) {
	if value, exists := c.Get(CallerKey); exists {
		caller, ok := value.(models.Caller)
		return caller, ok
	}
	return models.Caller{}, false
}
