package reel

import (
	"context"
	"errors"
	"time"

	"papermill_reel_tracker/models"
	"papermill_reel_tracker/yield"
)

// ComputeYield runs the calculator over a stored snapshot.
func (s *Service) ComputeYield(r *models.Reel) (yield.Result, error) {
	return yield.Compute(yield.Inputs{
		Weight:      r.Weight,
		ReamWeight:  r.ReamWeight,
		OutputReams: r.OutputReams,
		LooseSheets: r.LooseSheets,
	})
}

type YieldRow struct {
	Reel  models.Reel  `json:"reel"`
	Yield yield.Result `json:"yield"`
}

type YieldReport struct {
	Operator string     `json:"operator,omitempty"`
	Rows     []YieldRow `json:"rows"`
	// Excluded lists ruled reels whose yield cannot be computed.
	Excluded     []string `json:"excluded"`
	AverageYield *float64 `json:"averageYield"`
}

// YieldReport covers every ruled reel, or one operator's when operator is
// set. Reels with a degenerate snapshot are listed in Excluded and do not
// pull the average down.
func (s *Service) YieldReport(ctx context.Context, operator string) (rep *YieldReport, err error) {
	defer s.track("yield_report", time.Now(), &err)

	f := Completed()
	if operator != "" {
		f = CompletedBy(operator)
	}
	reels, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	rep = &YieldReport{Operator: operator, Rows: []YieldRow{}, Excluded: []string{}}
	var sum float64
	for _, r := range reels {
		res, yerr := s.ComputeYield(&r)
		if errors.Is(yerr, ErrNotComputable) {
			rep.Excluded = append(rep.Excluded, r.ID)
			continue
		}
		rep.Rows = append(rep.Rows, YieldRow{Reel: r, Yield: res})
		sum += res.YieldPercent
	}
	if len(rep.Rows) > 0 {
		avg := sum / float64(len(rep.Rows))
		rep.AverageYield = &avg
	}
	return rep, nil
}

// Summary is the manager dashboard header.
type Summary struct {
	Total        int      `json:"total"`
	Unassigned   int      `json:"unassigned"`
	AssignedOpen int      `json:"assignedOpen"`
	InProgress   int      `json:"inProgress"`
	Completed    int      `json:"completed"`
	Excluded     int      `json:"excluded"`
	AverageYield *float64 `json:"averageYield"`
}

func (s *Service) Summary(ctx context.Context) (sum *Summary, err error) {
	defer s.track("summary", time.Now(), &err)

	reels, err := s.List(ctx, Filter{Kind: FilterAll})
	if err != nil {
		return nil, err
	}
	sum = &Summary{Total: len(reels)}
	var total float64
	var n int
	for i := range reels {
		r := &reels[i]
		switch r.Stage() {
		case models.StagePending:
			sum.Unassigned++
		case models.StageAssigned:
			sum.AssignedOpen++
		case models.StageInProgress:
			sum.AssignedOpen++
			sum.InProgress++
		case models.StageRuled:
			sum.Completed++
			res, yerr := s.ComputeYield(r)
			if yerr != nil {
				sum.Excluded++
				continue
			}
			total += res.YieldPercent
			n++
		}
	}
	if n > 0 {
		avg := total / float64(n)
		sum.AverageYield = &avg
	}
	return sum, nil
}
