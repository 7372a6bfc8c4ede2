package reel

import (
	"context"
	"errors"
	"strings"
	"time"

	"papermill_reel_tracker/models"
)

// Assign hands a reel to an operator. Assigning an already assigned reel is
// not an error: the last write wins, the same as two managers racing.
// Moving the reel to a different operator drops its in-progress flag.
func (s *Service) Assign(ctx context.Context, reelID, operatorID string) (r *models.Reel, err error) {
	defer s.track("assign", time.Now(), &err)

	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return nil, invalid("operator", "required")
	}

	var previous string
	err = s.withLock(ctx, reelKey(reelID), func() error {
		cur, gerr := s.store.GetReel(ctx, reelID)
		if gerr != nil {
			return s.storeErr("get reel", "reel", reelID, gerr)
		}
		if cur.Ruled() {
			return invalid("reel", "reel %s is already ruled", cur.ReelNo)
		}
		previous = cur.AssignedTo

		now := s.now()
		p := models.AssignPatch{
			AssignedTo:    operatorID,
			AssignedAt:    now,
			ClearProgress: cur.AssignedTo != operatorID,
		}
		var perr error
		r, perr = s.store.PatchReel(ctx, reelID, p, now)
		if perr != nil {
			return s.storeErr("patch reel assignment", "reel", reelID, perr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != "" && previous != operatorID {
		s.log.Info("reel reassigned", "reel_id", reelID, "from", previous, "operator", operatorID)
	} else {
		s.log.Info("reel assigned", "reel_id", reelID, "operator", operatorID)
	}
	s.emit(ctx, Event{Type: EventAssigned, ReelID: reelID, Operator: operatorID})
	return r, nil
}

// Unassign returns an open reel to the pending pool.
func (s *Service) Unassign(ctx context.Context, reelID string) (r *models.Reel, err error) {
	defer s.track("unassign", time.Now(), &err)

	var previous string
	err = s.withLock(ctx, reelKey(reelID), func() error {
		cur, gerr := s.store.GetReel(ctx, reelID)
		if gerr != nil {
			return s.storeErr("get reel", "reel", reelID, gerr)
		}
		if cur.Ruled() {
			return invalid("reel", "reel %s is already ruled", cur.ReelNo)
		}
		previous = cur.AssignedTo
		var perr error
		r, perr = s.store.PatchReel(ctx, reelID, models.UnassignPatch{}, s.now())
		if perr != nil {
			return s.storeErr("patch reel assignment", "reel", reelID, perr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reel unassigned", "reel_id", reelID, "from", previous)
	s.emit(ctx, Event{Type: EventUnassigned, ReelID: reelID, Operator: previous})
	return r, nil
}

// MarkInProgress flags reelID as the one the operator is working on and
// clears the flag on the operator's other open reels.
//
// The fan-out is a series of independent single-record writes. Siblings are
// cleared before the target is set, so a failure part way through leaves at
// most the old flags in place and never two new ones. Calls for one operator
// are serialised, so concurrent calls converge on the last one.
func (s *Service) MarkInProgress(ctx context.Context, operatorID, reelID string) (r *models.Reel, err error) {
	defer s.track("mark_in_progress", time.Now(), &err)

	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return nil, invalid("operator", "required")
	}

	err = s.withLock(ctx, operatorKey(operatorID), func() error {
		if cerr := s.workable(ctx, operatorID, reelID); cerr != nil {
			return cerr
		}

		open, lerr := s.store.ListReels(ctx, AssignedOpen(operatorID))
		if lerr != nil {
			return s.storeErr("list reels", "reel", operatorID, lerr)
		}
		for i := range open {
			sib := &open[i]
			if sib.ID == reelID || !sib.InProgress {
				continue
			}
			// a sibling deleted meanwhile has nothing left to clear
			if werr := s.setProgress(ctx, sib.ID, false); werr != nil && !errors.Is(werr, ErrNotFound) {
				return werr
			}
		}
		// assignment may have moved while the siblings were cleared
		return s.withLock(ctx, reelKey(reelID), func() error {
			if cerr := s.workable(ctx, operatorID, reelID); cerr != nil {
				return cerr
			}
			var perr error
			r, perr = s.store.PatchReel(ctx, reelID, models.ProgressPatch{InProgress: true}, s.now())
			if perr != nil {
				return s.storeErr("patch reel progress", "reel", reelID, perr)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reel in progress", "reel_id", reelID, "operator", operatorID)
	s.emit(ctx, Event{Type: EventInProgress, ReelID: reelID, Operator: operatorID})
	return r, nil
}

// workable reads the reel and checks it is open and assigned to operatorID.
func (s *Service) workable(ctx context.Context, operatorID, reelID string) error {
	target, err := s.store.GetReel(ctx, reelID)
	if err != nil {
		return s.storeErr("get reel", "reel", reelID, err)
	}
	if target.Ruled() {
		return invalid("reel", "reel %s is already ruled", target.ReelNo)
	}
	if target.AssignedTo != operatorID {
		return invalid("reel", "reel %s is not assigned to %s", target.ReelNo, operatorID)
	}
	return nil
}

func (s *Service) setProgress(ctx context.Context, reelID string, on bool) error {
	return s.withLock(ctx, reelKey(reelID), func() error {
		_, err := s.store.PatchReel(ctx, reelID, models.ProgressPatch{InProgress: on}, s.now())
		if err != nil {
			return s.storeErr("patch reel progress", "reel", reelID, err)
		}
		return nil
	})
}

// CurrentInProgress returns the operator's reel in progress. Should more
// than one carry the flag, the first in list order is authoritative until a
// later MarkInProgress settles it.
func (s *Service) CurrentInProgress(ctx context.Context, operatorID string) (*models.Reel, error) {
	open, err := s.List(ctx, AssignedOpen(operatorID))
	if err != nil {
		return nil, err
	}
	for i := range open {
		if open[i].InProgress {
			return &open[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "reel in progress for operator", ID: operatorID}
}
