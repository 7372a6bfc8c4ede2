// Package yield derives expected reams, actual reams and the yield
// percentage of a ruled reel. Everything here is a pure function of its
// inputs; nothing is read back from storage.
package yield

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// SheetsPerReam is the fixed ream convention.
	SheetsPerReam = 500
	// reamWeightDivisor folds SheetsPerReam together with the cm²·gsm to kg
	// conversion. It is a domain constant and is not configurable per mill.
	reamWeightDivisor = 20000
)

// ErrNotComputable marks degenerate inputs. Callers exclude such reels from
// aggregates instead of treating the yield as zero.
var ErrNotComputable = errors.New("yield not computable")

// Inputs is the stored snapshot the calculation runs against.
// ReamWeight is nil until the reel has been ruled.
type Inputs struct {
	Weight      float64
	ReamWeight  *float64
	OutputReams int
	LooseSheets int
}

type Result struct {
	ReamWeight    float64 `json:"reamWeight"`
	ExpectedReams float64 `json:"expectedReams"`
	ActualReams   float64 `json:"actualReams"`
	YieldPercent  float64 `json:"yieldPercent"`
	YieldLoss     float64 `json:"yieldLoss"` // negative means over-yield
	Band          Band    `json:"band"`
}

// ReamWeight is the weight of one ream cut at length x width cm from paper
// of the given gsm, rounded to one decimal.
func ReamWeight(length, width, gsm float64) float64 {
	raw := decimal.NewFromFloat(length).
		Mul(decimal.NewFromFloat(width)).
		Mul(decimal.NewFromFloat(gsm)).
		Div(decimal.NewFromInt(reamWeightDivisor))
	return raw.Round(1).InexactFloat64()
}

// ActualReams converts whole reams plus loose sheets into reams.
func ActualReams(outputReams, looseSheets int) float64 {
	return float64(outputReams) + float64(looseSheets)/SheetsPerReam
}

func Compute(in Inputs) (Result, error) {
	if in.ReamWeight == nil {
		return Result{}, fmt.Errorf("%w: ream weight absent", ErrNotComputable)
	}
	rw := *in.ReamWeight
	if !finite(rw) || rw <= 0 {
		return Result{}, fmt.Errorf("%w: ream weight %v", ErrNotComputable, rw)
	}
	if !finite(in.Weight) || in.Weight <= 0 {
		return Result{}, fmt.Errorf("%w: reel weight %v", ErrNotComputable, in.Weight)
	}

	expected := in.Weight / rw
	actual := ActualReams(in.OutputReams, in.LooseSheets)
	pct := 100 * actual / expected
	return Result{
		ReamWeight:    rw,
		ExpectedReams: expected,
		ActualReams:   actual,
		YieldPercent:  pct,
		YieldLoss:     100 - pct,
		Band:          BandOf(pct),
	}, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
