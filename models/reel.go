// models/reel.go
package models

import "time"

const ReelTable = "pm_reels"
const ReelOptionTable = "pm_reel_options"

// Reel is one roll of raw paper stock, from intake until it is ruled.
// assigned_to == "" means the reel is still pending.
type Reel struct {
	ID      string  `gorm:"type:uuid;primaryKey" json:"id"`
	ReelNo  string  `gorm:"size:120;index;not null" json:"reelNo"` // not unique over time
	Size    string  `gorm:"size:60;not null" json:"size"`
	GSM     string  `gorm:"column:gsm;size:30;not null" json:"gsm"`
	Quality string  `gorm:"size:120;not null" json:"quality"`
	Mill    string  `gorm:"size:120;not null" json:"mill"`
	Weight  float64 `gorm:"not null" json:"weight"` // kg at intake

	AssignedTo string     `gorm:"size:120;index;not null;default:''" json:"assignedTo"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	InProgress bool       `gorm:"not null;default:false" json:"inProgress"`

	OutputReams  int        `gorm:"not null;default:0" json:"outputReams"`
	LooseSheets  int        `gorm:"not null;default:0" json:"looseSheets"`
	OutputLength float64    `gorm:"not null;default:0" json:"outputLength"` // cm
	OutputWidth  float64    `gorm:"not null;default:0" json:"outputWidth"`  // cm
	ReamWeight   *float64   `json:"reamWeight,omitempty"`                   // set at completion only
	RuledDate    *time.Time `gorm:"index" json:"ruledDate,omitempty"`

	Remarks   string    `gorm:"type:text;not null;default:''" json:"remarks"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Reel) TableName() string { return ReelTable }

// Ruled reports whether production has been measured for the reel.
func (r *Reel) Ruled() bool { return r.RuledDate != nil }

// Open is the opposite of Ruled.
func (r *Reel) Open() bool { return r.RuledDate == nil }

// Stage is the lifecycle position derived from the stored fields.
func (r *Reel) Stage() Stage {
	switch {
	case r.RuledDate != nil:
		return StageRuled
	case r.AssignedTo == "":
		return StagePending
	case r.InProgress:
		return StageInProgress
	default:
		return StageAssigned
	}
}

type Stage string

const (
	StagePending    Stage = "pending"
	StageAssigned   Stage = "assigned"
	StageInProgress Stage = "in_progress"
	StageRuled      Stage = "ruled"
)
