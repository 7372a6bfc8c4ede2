package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// GET /api/reports/yield?operator=
func (rc *ReportController) Yield(c *gin.Context) {
	rep, err := rc.Svc.YieldReport(c.Request.Context(), c.Query("operator"))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/reports/summary
func (rc *ReportController) Summary(c *gin.Context) {
	sum, err := rc.Svc.Summary(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
