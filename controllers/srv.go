// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/config"
	"papermill_reel_tracker/extract"
	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/session"
)

// Srv is what every handler needs.
type Srv struct {
	Svc       *reel.Service
	AppSess   *session.AppSessionStore
	Extractor *extract.Client
	Cfg       config.Config
	Log       *slog.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Svc:       a.Service,
		AppSess:   a.Sessions,
		Extractor: a.Extractor,
		Cfg:       a.Config,
		Log:       a.Log,
	}
}

// --- helpers ---

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.SecureCookies(),
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearAppCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.SecureCookies(),
	})
}

func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID string, role session.Role) (*session.AppSession, error) {
	id := uuid.NewString()
	as, err := s.AppSess.Create(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	s.setAppCookie(w, id, s.AppSess.TTL())
	return as, nil
}

// statusOf maps domain error kinds onto HTTP.
func statusOf(err error) int {
	var xe *extractError
	switch {
	case errors.As(err, &xe):
		return http.StatusBadGateway
	case errors.Is(err, reel.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, reel.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reel.ErrNotComputable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, reel.ErrStore), errors.Is(err, extract.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Srv) fail(c *gin.Context, err error) {
	status := statusOf(err)
	body := app.H{"error": err.Error()}
	if f, ok := fieldOf(err); ok {
		body["field"] = f
	}
	if status >= http.StatusInternalServerError {
		s.Log.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, body)
}

func fieldOf(err error) (string, bool) {
	var ve *reel.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		return ve.Field, true
	}
	return "", false
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, app.H{"error": msg})
}
