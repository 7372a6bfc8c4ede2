// controllers/reel_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/models"
	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/yield"
)

type ReelController struct{ *Srv }

func NewReelController(s *Srv) *ReelController { return &ReelController{Srv: s} }

// reelView is a reel plus its yield when one can be computed.
type reelView struct {
	models.Reel
	Stage models.Stage  `json:"stage"`
	Yield *yield.Result `json:"yield,omitempty"`
}

func (s *Srv) view(r *models.Reel) reelView {
	v := reelView{Reel: *r, Stage: r.Stage()}
	if r.Ruled() {
		if res, err := s.Svc.ComputeYield(r); err == nil {
			v.Yield = &res
		}
	}
	return v
}

func (s *Srv) views(rs []models.Reel) []reelView {
	out := make([]reelView, 0, len(rs))
	for i := range rs {
		out = append(out, s.view(&rs[i]))
	}
	return out
}

type createBody struct {
	ReelNo  Text `json:"reelNo"`
	Size    Text `json:"size"`
	GSM     Text `json:"gsm"`
	Quality Text `json:"quality"`
	Mill    Text `json:"mill"`
	Weight  Text `json:"weight"`
}

func (b createBody) input() reel.CreateInput {
	return reel.CreateInput{
		ReelNo:  b.ReelNo.String(),
		Size:    b.Size.String(),
		GSM:     b.GSM.String(),
		Quality: b.Quality.String(),
		Mill:    b.Mill.String(),
		Weight:  b.Weight.String(),
	}
}

// POST /api/reels
func (rc *ReelController) Create(c *gin.Context) {
	var in createBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := rc.Svc.Create(c.Request.Context(), in.input())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rc.view(r))
}

// GET /api/reels?filter=&operator=&q=
func (rc *ReelController) List(c *gin.Context) {
	f := reel.Filter{
		Kind:     reel.FilterKind(c.DefaultQuery("filter", string(reel.FilterAll))),
		Operator: c.Query("operator"),
		ReelNo:   c.Query("q"),
	}
	rs, err := rc.Svc.List(c.Request.Context(), f)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reels": rc.views(rs)})
}

// GET /api/reels/:id
func (rc *ReelController) Get(c *gin.Context) {
	r, err := rc.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

type detailBody struct {
	ReelNo  *string `json:"reelNo"`
	Size    *string `json:"size"`
	GSM     *Text   `json:"gsm"`
	Quality *string `json:"quality"`
	Mill    *string `json:"mill"`
	Weight  *Text   `json:"weight"`
}

func (b detailBody) patch() (models.DetailPatch, error) {
	p := models.DetailPatch{ReelNo: b.ReelNo, Size: b.Size, Quality: b.Quality, Mill: b.Mill}
	if b.GSM != nil {
		g := b.GSM.String()
		p.GSM = &g
	}
	if b.Weight != nil {
		w, err := strconv.ParseFloat(strings.TrimSpace(b.Weight.String()), 64)
		if err != nil {
			return p, &reel.ValidationError{Field: "weight", Reason: "must be a number"}
		}
		p.Weight = &w
	}
	return p, nil
}

// PATCH /api/reels/:id
func (rc *ReelController) Update(c *gin.Context) {
	var in detailBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := in.patch()
	if err != nil {
		rc.fail(c, err)
		return
	}
	r, err := rc.Svc.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

// PUT /api/reels/:id/remarks
func (rc *ReelController) Annotate(c *gin.Context) {
	var in struct {
		Remarks *string `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Remarks == nil {
		badRequest(c, "remarks is required")
		return
	}
	r, err := rc.Svc.Annotate(c.Request.Context(), c.Param("id"), *in.Remarks)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

// DELETE /api/reels/:id
func (rc *ReelController) Delete(c *gin.Context) {
	if err := rc.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// POST /api/reels/:id/assign
func (rc *ReelController) Assign(c *gin.Context) {
	var in struct {
		Operator string `json:"operator"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := rc.Svc.Assign(c.Request.Context(), c.Param("id"), in.Operator)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

// POST /api/reels/:id/unassign
func (rc *ReelController) Unassign(c *gin.Context) {
	r, err := rc.Svc.Unassign(c.Request.Context(), c.Param("id"))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

// --- operator side: identity always comes from the session ---

type outputBody struct {
	OutputReams  Text `json:"outputReams"`
	LooseSheets  Text `json:"looseSheets"`
	OutputLength Text `json:"outputLength"`
	OutputWidth  Text `json:"outputWidth"`
}

func (b outputBody) input() reel.OutputInput {
	return reel.OutputInput{
		OutputReams:  b.OutputReams.String(),
		LooseSheets:  b.LooseSheets.String(),
		OutputLength: b.OutputLength.String(),
		OutputWidth:  b.OutputWidth.String(),
	}
}

// GET /api/my/reels?q=
func (rc *ReelController) MyReels(c *gin.Context) {
	f := reel.AssignedOpen(app.UserID(c))
	f.ReelNo = c.Query("q")
	rs, err := rc.Svc.List(c.Request.Context(), f)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reels": rc.views(rs)})
}

// GET /api/my/reels/completed?q=
func (rc *ReelController) MyCompleted(c *gin.Context) {
	f := reel.CompletedBy(app.UserID(c))
	f.ReelNo = c.Query("q")
	rs, err := rc.Svc.List(c.Request.Context(), f)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reels": rc.views(rs)})
}

// GET /api/my/current
func (rc *ReelController) Current(c *gin.Context) {
	r, err := rc.Svc.CurrentInProgress(c.Request.Context(), app.UserID(c))
	if errors.Is(err, reel.ErrNotFound) {
		c.JSON(http.StatusOK, app.H{"reel": nil})
		return
	}
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"reel": rc.view(r)})
}

// POST /api/my/reels/:id/start
func (rc *ReelController) Start(c *gin.Context) {
	r, err := rc.Svc.MarkInProgress(c.Request.Context(), app.UserID(c), c.Param("id"))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

// POST /api/my/reels/:id/output
func (rc *ReelController) RecordOutput(c *gin.Context) {
	var in outputBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := rc.Svc.RecordOutput(c.Request.Context(), app.UserID(c), c.Param("id"), in.input())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}

// PUT /api/my/reels/:id/output
func (rc *ReelController) EditOutput(c *gin.Context) {
	var in outputBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := rc.Svc.EditOutput(c.Request.Context(), app.UserID(c), c.Param("id"), in.input())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rc.view(r))
}
