package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/reel"
)

type OptionController struct{ *Srv }

func NewOptionController(s *Srv) *OptionController { return &OptionController{Srv: s} }

// GET /api/options
func (oc *OptionController) All(c *gin.Context) {
	all, err := oc.Svc.AllOptions(c.Request.Context())
	if err != nil {
		oc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"options": all})
}

// GET /api/options/:dimension
func (oc *OptionController) List(c *gin.Context) {
	dim, err := reel.ParseDimension(c.Param("dimension"))
	if err != nil {
		oc.fail(c, err)
		return
	}
	vals, err := oc.Svc.ListOptions(c.Request.Context(), dim)
	if err != nil {
		oc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"dimension": dim, "values": vals})
}

// POST /api/options/:dimension {"value": "..."}
func (oc *OptionController) Add(c *gin.Context) {
	dim, err := reel.ParseDimension(c.Param("dimension"))
	if err != nil {
		oc.fail(c, err)
		return
	}
	var in struct {
		Value Text `json:"value"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	added, err := oc.Svc.AddOption(c.Request.Context(), dim, in.Value.String())
	if err != nil {
		oc.fail(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, app.H{"dimension": dim, "value": in.Value, "added": added})
}

// DELETE /api/options/:dimension?value=...
func (oc *OptionController) Remove(c *gin.Context) {
	dim, err := reel.ParseDimension(c.Param("dimension"))
	if err != nil {
		oc.fail(c, err)
		return
	}
	value := c.Query("value")
	if value == "" {
		badRequest(c, "value is required")
		return
	}
	if err := oc.Svc.RemoveOption(c.Request.Context(), dim, value); err != nil {
		oc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
