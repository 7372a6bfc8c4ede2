package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/controllers"
	"papermill_reel_tracker/session"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// controllers and dependencies
	s := controllers.GetSrv(a)
	reelCtl := controllers.NewReelController(s)
	optionCtl := controllers.NewOptionController(s)
	reportCtl := controllers.NewReportController(s)
	sessCtl := controllers.NewSessionController(s)
	extractCtl := controllers.NewExtractController(s)

	// shared middleware
	authMW := app.AuthRequired(a.Sessions)
	seenMW := app.TouchSession(a.Sessions, a.RDB, 5*time.Minute)
	deskMW := app.RequireRole(session.RoleOffice, session.RoleManager)
	officeMW := app.RequireRole(session.RoleOffice)
	operatorMW := app.RequireRole(session.RoleOperator)

	r.GET("/healthz", func(c *app.Ctx) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, app.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, app.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	api := r.Group("/api")

	// ------------------------------
	// sessions
	// ------------------------------
	api.POST("/sessions", sessCtl.Open)
	authed := api.Group("", authMW, seenMW)
	{
		authed.DELETE("/sessions", sessCtl.Close)
		authed.GET("/whoami", sessCtl.WhoAmI)
	}
	api.DELETE("/sessions/users/:id", authMW, deskMW, sessCtl.RevokeUser)

	// ------------------------------
	// office + manager desk
	// ------------------------------
	desk := api.Group("", authMW, seenMW, deskMW)
	{
		desk.POST("/reels", reelCtl.Create)
		desk.GET("/reels", reelCtl.List) // ?filter=&operator=&q=
		desk.GET("/reels/:id", reelCtl.Get)
		desk.POST("/reels/:id/assign", reelCtl.Assign)
		desk.POST("/reels/:id/unassign", reelCtl.Unassign)

		desk.GET("/reports/yield", reportCtl.Yield) // ?operator=
		desk.GET("/reports/summary", reportCtl.Summary)

		desk.GET("/options", optionCtl.All)
		desk.GET("/options/:dimension", optionCtl.List)
		desk.POST("/options/:dimension", optionCtl.Add)
		desk.DELETE("/options/:dimension", optionCtl.Remove) // ?value=

		desk.POST("/extract", extractCtl.Extract) // ?create=true
	}

	// office corrections
	office := api.Group("", authMW, seenMW, officeMW)
	{
		office.PATCH("/reels/:id", reelCtl.Update)
		office.PUT("/reels/:id/remarks", reelCtl.Annotate)
		office.DELETE("/reels/:id", reelCtl.Delete)
	}

	// ------------------------------
	// operator floor
	// ------------------------------
	my := api.Group("/my", authMW, seenMW, operatorMW)
	{
		my.GET("/reels", reelCtl.MyReels)
		my.GET("/reels/completed", reelCtl.MyCompleted)
		my.GET("/current", reelCtl.Current)
		my.POST("/reels/:id/start", reelCtl.Start)
		my.POST("/reels/:id/output", reelCtl.RecordOutput)
		my.PUT("/reels/:id/output", reelCtl.EditOutput)
	}
}
