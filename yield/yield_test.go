package yield

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestReamWeight(t *testing.T) {
	tests := []struct {
		name               string
		length, width, gsm float64
		want               float64
	}{
		{"standard sheet", 70, 50, 80, 14.0},
		{"rounds to one decimal", 61, 91, 58, 16.1},
		{"small sheet", 43, 56, 48, 5.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ReamWeight(tt.length, tt.width, tt.gsm), 1e-9)
		})
	}
}

func TestCompute(t *testing.T) {
	t.Run("worked example lands in warning band", func(t *testing.T) {
		res, err := Compute(Inputs{Weight: 500, ReamWeight: ptr(14.0), OutputReams: 30, LooseSheets: 250})
		require.NoError(t, err)
		assert.InDelta(t, 35.714, res.ExpectedReams, 0.001)
		assert.InDelta(t, 30.5, res.ActualReams, 1e-9)
		assert.InDelta(t, 85.4, res.YieldPercent, 0.01)
		assert.InDelta(t, 14.6, res.YieldLoss, 0.01)
		assert.Equal(t, BandWarning, res.Band)
	})

	t.Run("identities hold", func(t *testing.T) {
		in := Inputs{Weight: 812.5, ReamWeight: ptr(16.3), OutputReams: 47, LooseSheets: 133}
		res, err := Compute(in)
		require.NoError(t, err)
		assert.InDelta(t, in.Weight/16.3, res.ExpectedReams, 1e-9)
		assert.InDelta(t, 47+133.0/500, res.ActualReams, 1e-9)
		assert.InDelta(t, 100*res.ActualReams/res.ExpectedReams, res.YieldPercent, 1e-9)
		assert.InDelta(t, 100-res.YieldPercent, res.YieldLoss, 1e-9)
	})

	t.Run("over-yield gives negative loss", func(t *testing.T) {
		res, err := Compute(Inputs{Weight: 140, ReamWeight: ptr(14.0), OutputReams: 11})
		require.NoError(t, err)
		assert.Less(t, res.YieldLoss, 0.0)
		assert.Equal(t, BandGood, res.Band)
	})

	t.Run("degenerate inputs are not computable", func(t *testing.T) {
		cases := map[string]Inputs{
			"absent ream weight": {Weight: 500},
			"zero ream weight":   {Weight: 500, ReamWeight: ptr(0)},
			"NaN ream weight":    {Weight: 500, ReamWeight: ptr(math.NaN())},
			"infinite":           {Weight: 500, ReamWeight: ptr(math.Inf(1))},
			"zero reel weight":   {Weight: 0, ReamWeight: ptr(14)},
		}
		for name, in := range cases {
			_, err := Compute(in)
			assert.Truef(t, errors.Is(err, ErrNotComputable), "%s: got %v", name, err)
		}
	})
}

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandGood, BandOf(90))
	assert.Equal(t, BandGood, BandOf(101.2))
	assert.Equal(t, BandWarning, BandOf(89.99))
	assert.Equal(t, BandWarning, BandOf(85))
	assert.Equal(t, BandPoor, BandOf(84.99))
}
