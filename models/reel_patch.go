// models/reel_patch.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Patch is one stage-specific write against a reel. Each implementation
// names only the columns its stage owns so that unrelated concurrent edits
// never overwrite each other.
type Patch interface {
	// Columns is the column set for SQL stores.
	Columns(now time.Time) map[string]any
	// Apply mutates an in-memory copy for key/value stores.
	Apply(r *Reel, now time.Time)
	// Name is used for logs, metrics and events.
	Name() string

	patch()
}

// DetailPatch corrects intake fields. Nil fields are left alone.
// ReamWeight is filled in by the service when a gsm correction hits a
// ruled reel.
type DetailPatch struct {
	ReelNo  *string  `json:"reelNo,omitempty"`
	Size    *string  `json:"size,omitempty"`
	GSM     *string  `json:"gsm,omitempty"`
	Quality *string  `json:"quality,omitempty"`
	Mill    *string  `json:"mill,omitempty"`
	Weight  *float64 `json:"weight,omitempty"`

	ReamWeight *float64 `json:"-"`
}

func (p DetailPatch) Empty() bool {
	return p.ReelNo == nil && p.Size == nil && p.GSM == nil && p.Quality == nil && p.Mill == nil && p.Weight == nil
}

func (p DetailPatch) Columns(now time.Time) map[string]any {
	m := map[string]any{"updated_at": now}
	if p.ReelNo != nil {
		m["reel_no"] = *p.ReelNo
	}
	if p.Size != nil {
		m["size"] = *p.Size
	}
	if p.GSM != nil {
		m["gsm"] = *p.GSM
	}
	if p.Quality != nil {
		m["quality"] = *p.Quality
	}
	if p.Mill != nil {
		m["mill"] = *p.Mill
	}
	if p.Weight != nil {
		m["weight"] = *p.Weight
	}
	if p.ReamWeight != nil {
		m["ream_weight"] = *p.ReamWeight
	}
	return m
}

func (p DetailPatch) Apply(r *Reel, now time.Time) {
	if p.ReelNo != nil {
		r.ReelNo = *p.ReelNo
	}
	if p.Size != nil {
		r.Size = *p.Size
	}
	if p.GSM != nil {
		r.GSM = *p.GSM
	}
	if p.Quality != nil {
		r.Quality = *p.Quality
	}
	if p.Mill != nil {
		r.Mill = *p.Mill
	}
	if p.Weight != nil {
		r.Weight = *p.Weight
	}
	if p.ReamWeight != nil {
		rw := *p.ReamWeight
		r.ReamWeight = &rw
	}
	r.UpdatedAt = now
}

func (DetailPatch) Name() string { return "details" }
func (DetailPatch) patch()       {}

// AssignPatch hands a reel to an operator. ClearProgress drops a stale
// in-progress flag when the reel moves to somebody else.
type AssignPatch struct {
	AssignedTo    string
	AssignedAt    time.Time
	ClearProgress bool
}

func (p AssignPatch) Columns(now time.Time) map[string]any {
	m := map[string]any{
		"assigned_to": p.AssignedTo,
		"assigned_at": p.AssignedAt,
		"updated_at":  now,
	}
	if p.ClearProgress {
		m["in_progress"] = false
	}
	return m
}

func (p AssignPatch) Apply(r *Reel, now time.Time) {
	at := p.AssignedAt
	r.AssignedTo = p.AssignedTo
	r.AssignedAt = &at
	if p.ClearProgress {
		r.InProgress = false
	}
	r.UpdatedAt = now
}

func (AssignPatch) Name() string { return "assign" }
func (AssignPatch) patch()       {}

// UnassignPatch returns an open reel to the pending pool.
type UnassignPatch struct{}

func (UnassignPatch) Columns(now time.Time) map[string]any {
	return map[string]any{
		"assigned_to": "",
		"assigned_at": nil,
		"in_progress": false,
		"updated_at":  now,
	}
}

func (UnassignPatch) Apply(r *Reel, now time.Time) {
	r.AssignedTo = ""
	r.AssignedAt = nil
	r.InProgress = false
	r.UpdatedAt = now
}

func (UnassignPatch) Name() string { return "unassign" }
func (UnassignPatch) patch()       {}

type ProgressPatch struct {
	InProgress bool
}

func (p ProgressPatch) Columns(now time.Time) map[string]any {
	return map[string]any{"in_progress": p.InProgress, "updated_at": now}
}

func (p ProgressPatch) Apply(r *Reel, now time.Time) {
	r.InProgress = p.InProgress
	r.UpdatedAt = now
}

func (ProgressPatch) Name() string { return "progress" }
func (ProgressPatch) patch()       {}

// OutputPatch writes every completion field in one record write.
// RuledAt only lands when the reel has no ruled date yet.
type OutputPatch struct {
	OutputReams  int
	LooseSheets  int
	OutputLength float64
	OutputWidth  float64
	ReamWeight   float64
	RuledAt      time.Time
}

func (p OutputPatch) Columns(now time.Time) map[string]any {
	return map[string]any{
		"output_reams":  p.OutputReams,
		"loose_sheets":  p.LooseSheets,
		"output_length": p.OutputLength,
		"output_width":  p.OutputWidth,
		"ream_weight":   p.ReamWeight,
		"in_progress":   false,
		"ruled_date":    gorm.Expr("COALESCE(ruled_date, ?)", p.RuledAt),
		"updated_at":    now,
	}
}

func (p OutputPatch) Apply(r *Reel, now time.Time) {
	rw := p.ReamWeight
	r.OutputReams = p.OutputReams
	r.LooseSheets = p.LooseSheets
	r.OutputLength = p.OutputLength
	r.OutputWidth = p.OutputWidth
	r.ReamWeight = &rw
	r.InProgress = false
	if r.RuledDate == nil {
		at := p.RuledAt
		r.RuledDate = &at
	}
	r.UpdatedAt = now
}

func (OutputPatch) Name() string { return "output" }
func (OutputPatch) patch()       {}

type RemarksPatch struct {
	Remarks string
}

func (p RemarksPatch) Columns(now time.Time) map[string]any {
	return map[string]any{"remarks": p.Remarks, "updated_at": now}
}

func (p RemarksPatch) Apply(r *Reel, now time.Time) {
	r.Remarks = p.Remarks
	r.UpdatedAt = now
}

func (RemarksPatch) Name() string { return "remarks" }
func (RemarksPatch) patch()       {}
