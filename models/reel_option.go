// models/reel_option.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Dimension is one constrained attribute of a reel.
type Dimension string

const (
	DimensionSize    Dimension = "size"
	DimensionGSM     Dimension = "gsm"
	DimensionQuality Dimension = "quality"
	DimensionMill    Dimension = "mill"
)

// Dimensions lists every known dimension in display order.
var Dimensions = []Dimension{DimensionSize, DimensionGSM, DimensionQuality, DimensionMill}

func (d Dimension) Valid() bool {
	switch d {
	case DimensionSize, DimensionGSM, DimensionQuality, DimensionMill:
		return true
	}
	return false
}

// ReelOption holds the allowed values of one dimension, in insertion order.
type ReelOption struct {
	Dimension Dimension                   `gorm:"size:30;primaryKey" json:"dimension"`
	Values    datatypes.JSONSlice[string] `gorm:"column:option_values" json:"values"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

func (ReelOption) TableName() string { return ReelOptionTable }
