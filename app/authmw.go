package app

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"papermill_reel_tracker/session"
)

const AppSessionCookie = "reeltrack_session"

// Context keys set by AuthRequired.
const (
	CtxUserID    = "userID"
	CtxRole      = "role"
	CtxSessionID = "sessionID"
)

// AuthRequired resolves the session cookie into user id and role.
func AuthRequired(appSess *session.AppSessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if errors.Is(err, session.ErrNoSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, H{"error": "session store unavailable"})
			return
		}
		c.Set(CtxUserID, as.UserID)
		c.Set(CtxRole, as.Role)
		c.Set(CtxSessionID, ck.Value)
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles. It runs
// after AuthRequired.
func RequireRole(roles ...session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleOf(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	v, _ := c.Get(CtxUserID)
	uid, _ := v.(string)
	return uid
}

func RoleOf(c *gin.Context) (session.Role, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return "", false
	}
	r, ok := v.(session.Role)
	return r, ok
}
