package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/session"
)

// SessionController opens sessions for identities verified elsewhere. The
// identity service proves itself with the shared issuer token.
type SessionController struct{ *Srv }

func NewSessionController(s *Srv) *SessionController { return &SessionController{Srv: s} }

func (sc *SessionController) issuerOK(c *gin.Context) bool {
	got := c.GetHeader(app.IssuerTokenHeader)
	want := sc.Cfg.SessionIssuerToken
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// POST /api/sessions {"userId": "...", "role": "operator"}
func (sc *SessionController) Open(c *gin.Context) {
	if !sc.issuerOK(c) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid issuer token"})
		return
	}
	var in struct {
		UserID string `json:"userId" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	role, err := session.ParseRole(in.Role)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	uid := strings.TrimSpace(in.UserID)
	if uid == "" {
		badRequest(c, "userId is required")
		return
	}
	as, err := sc.issueSession(c.Request.Context(), c.Writer, uid, role)
	if err != nil {
		sc.Log.Error("open session", "user", uid, "error", err)
		c.JSON(http.StatusServiceUnavailable, app.H{"error": "session store unavailable"})
		return
	}
	sc.Log.Info("session opened", "user", uid, "role", role)
	c.JSON(http.StatusCreated, as)
}

// DELETE /api/sessions
func (sc *SessionController) Close(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = sc.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	sc.clearAppCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/whoami
func (sc *SessionController) WhoAmI(c *gin.Context) {
	role, _ := app.RoleOf(c)
	c.JSON(http.StatusOK, app.H{"userId": app.UserID(c), "role": role})
}

// DELETE /api/sessions/users/:id ends every session of that user.
func (sc *SessionController) RevokeUser(c *gin.Context) {
	id := c.Param("id")
	if id == app.UserID(c) {
		badRequest(c, "cannot revoke your own sessions here, log out instead")
		return
	}
	if err := sc.AppSess.RevokeAllForUser(c.Request.Context(), id); err != nil {
		sc.Log.Error("revoke sessions", "user", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, app.H{"error": "session store unavailable"})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
