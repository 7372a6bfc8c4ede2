package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"papermill_reel_tracker/extract"
	"papermill_reel_tracker/models"
)

const maxUpload = 20 << 20

type ExtractController struct{ *Srv }

func NewExtractController(s *Srv) *ExtractController { return &ExtractController{Srv: s} }

type candidateResult struct {
	Candidate extract.Candidate `json:"candidate"`
	Reel      *models.Reel      `json:"reel,omitempty"`
	Error     string            `json:"error,omitempty"`
	Field     string            `json:"field,omitempty"`
}

// POST /api/extract (multipart "pdf"); ?create=true registers every
// candidate that passes validation.
func (ec *ExtractController) Extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	fh, err := c.FormFile("pdf")
	if err != nil {
		badRequest(c, "no PDF file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	defer f.Close()

	res, err := ec.Extractor.Extract(c.Request.Context(), fh.Filename, f)
	if err != nil {
		if !errors.Is(err, extract.ErrDisabled) {
			err = &extractError{err}
		}
		ec.fail(c, err)
		return
	}

	create, _ := strconv.ParseBool(c.Query("create"))
	if !create {
		c.JSON(http.StatusOK, res)
		return
	}

	out := make([]candidateResult, 0, len(res.Candidates))
	for _, cand := range res.Candidates {
		cr := candidateResult{Candidate: cand}
		r, err := ec.Svc.Create(c.Request.Context(), cand.CreateInput())
		if err != nil {
			cr.Error = err.Error()
			cr.Field, _ = fieldOf(err)
		} else {
			cr.Reel = r
		}
		out = append(out, cr)
	}
	c.JSON(http.StatusOK, gin.H{"results": out, "text": res.Text})
}

// extractError marks a failure of the extraction service itself.
type extractError struct{ err error }

func (e *extractError) Error() string { return e.err.Error() }
func (e *extractError) Unwrap() error { return e.err }
