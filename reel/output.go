package reel

import (
	"context"
	"strconv"
	"strings"
	"time"

	"papermill_reel_tracker/models"
	"papermill_reel_tracker/yield"
)

// OutputInput is what the operator measured at the ruling machine, as typed.
type OutputInput struct {
	OutputReams  string `json:"outputReams"`
	LooseSheets  string `json:"looseSheets"`
	OutputLength string `json:"outputLength"`
	OutputWidth  string `json:"outputWidth"`
}

type measurement struct {
	reams, sheets int
	length, width float64
}

func (in OutputInput) parse() (measurement, error) {
	var m measurement
	var err error
	if m.reams, err = parseCount("outputReams", in.OutputReams); err != nil {
		return m, err
	}
	if m.sheets, err = parseCount("looseSheets", in.LooseSheets); err != nil {
		return m, err
	}
	if m.length, err = parseSize("outputLength", in.OutputLength); err != nil {
		return m, err
	}
	if m.width, err = parseSize("outputWidth", in.OutputWidth); err != nil {
		return m, err
	}
	return m, nil
}

func parseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid(field, "required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalid(field, "%q is not a whole number", raw)
	}
	return n, nil
}

func parseSize(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid(field, "required")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(f) || f <= 0 {
		return 0, invalid(field, "%q is not a positive number", raw)
	}
	return f, nil
}

// RecordOutput completes a reel: all measurements, the ream weight and the
// ruled date land in a single write. A reel that is already ruled goes
// through EditOutput instead.
func (s *Service) RecordOutput(ctx context.Context, operatorID, reelID string, in OutputInput) (*models.Reel, error) {
	return s.writeOutput(ctx, "record_output", operatorID, reelID, in, false)
}

// EditOutput corrects the measurements of a ruled reel. The ruled date
// stays where it is.
func (s *Service) EditOutput(ctx context.Context, operatorID, reelID string, in OutputInput) (*models.Reel, error) {
	return s.writeOutput(ctx, "edit_output", operatorID, reelID, in, true)
}

func (s *Service) writeOutput(ctx context.Context, op, operatorID, reelID string, in OutputInput, edit bool) (r *models.Reel, err error) {
	defer s.track(op, time.Now(), &err)

	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return nil, invalid("operator", "required")
	}
	m, err := in.parse()
	if err != nil {
		return nil, err
	}

	err = s.withLock(ctx, reelKey(reelID), func() error {
		cur, gerr := s.store.GetReel(ctx, reelID)
		if gerr != nil {
			return s.storeErr("get reel", "reel", reelID, gerr)
		}
		if cur.AssignedTo != operatorID {
			return invalid("reel", "reel %s is not assigned to %s", cur.ReelNo, operatorID)
		}
		switch {
		case edit && cur.Open():
			return invalid("reel", "reel %s has no recorded output yet", cur.ReelNo)
		case !edit && cur.Ruled():
			return invalid("reel", "reel %s is already ruled", cur.ReelNo)
		}
		rw, rerr := reamWeightFor(cur.ReelNo, cur.GSM, m.length, m.width)
		if rerr != nil {
			return rerr
		}

		now := s.now()
		p := models.OutputPatch{
			OutputReams:  m.reams,
			LooseSheets:  m.sheets,
			OutputLength: m.length,
			OutputWidth:  m.width,
			ReamWeight:   rw,
			RuledAt:      now,
		}
		var werr error
		r, werr = s.store.PatchReel(ctx, reelID, p, now)
		if werr != nil {
			return s.storeErr("patch reel output", "reel", reelID, werr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, yerr := s.ComputeYield(r)
	if yerr == nil {
		s.obs.ObserveYield(res.YieldPercent)
	}
	typ := EventRuled
	if edit {
		typ = EventOutputEdited
	}
	s.log.Info("reel output recorded", "reel_id", reelID, "operator", operatorID, "edit", edit,
		"ream_weight", *r.ReamWeight, "yield", res.YieldPercent)
	s.emit(ctx, Event{Type: typ, ReelID: reelID, Operator: operatorID})
	return r, nil
}

// reamWeightFor derives the ream weight of a reel's sheets from its gsm
// text and the cut size.
func reamWeightFor(reelNo, gsmRaw string, length, width float64) (float64, error) {
	gsm, err := strconv.ParseFloat(strings.TrimSpace(gsmRaw), 64)
	if err != nil || !finite(gsm) || gsm <= 0 {
		return 0, invalid("gsm", "reel %s has gsm %q, expected a positive number", reelNo, gsmRaw)
	}
	rw := yield.ReamWeight(length, width, gsm)
	if rw <= 0 {
		return 0, invalid("reamWeight", "%.2f x %.2f at %v gsm rounds to zero", length, width, gsm)
	}
	return rw, nil
}
