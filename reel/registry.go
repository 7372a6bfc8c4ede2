package reel

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"papermill_reel_tracker/models"
)

// CreateInput is the raw intake form. Values may come from a person or from
// the document-extraction collaborator; either way they are validated here.
type CreateInput struct {
	ReelNo  string `json:"reelNo"`
	Size    string `json:"size"`
	GSM     string `json:"gsm"`
	Quality string `json:"quality"`
	Mill    string `json:"mill"`
	Weight  string `json:"weight"`
}

// Create registers a new pending reel.
func (s *Service) Create(ctx context.Context, in CreateInput) (r *models.Reel, err error) {
	defer s.track("create", time.Now(), &err)

	fields := []struct {
		name  string
		value *string
	}{
		{"reelNo", &in.ReelNo},
		{"size", &in.Size},
		{"gsm", &in.GSM},
		{"quality", &in.Quality},
		{"mill", &in.Mill},
		{"weight", &in.Weight},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return nil, invalid(f.name, "required")
		}
	}
	weight, err := parseWeight(in.Weight)
	if err != nil {
		return nil, err
	}
	if err := s.checkOptions(ctx, map[models.Dimension]string{
		models.DimensionSize:    in.Size,
		models.DimensionGSM:     in.GSM,
		models.DimensionQuality: in.Quality,
		models.DimensionMill:    in.Mill,
	}); err != nil {
		return nil, err
	}

	now := s.now()
	r = &models.Reel{
		ID:        s.newID(),
		ReelNo:    in.ReelNo,
		Size:      in.Size,
		GSM:       in.GSM,
		Quality:   in.Quality,
		Mill:      in.Mill,
		Weight:    weight,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertReel(ctx, r); err != nil {
		return nil, s.storeErr("insert reel", "reel", r.ID, err)
	}
	s.log.Info("reel created", "reel_id", r.ID, "reel_no", r.ReelNo, "weight", r.Weight)
	s.emit(ctx, Event{Type: EventCreated, ReelID: r.ID, At: now})
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Reel, error) {
	r, err := s.store.GetReel(ctx, id)
	if err != nil {
		return nil, s.storeErr("get reel", "reel", id, err)
	}
	return r, nil
}

// List returns a snapshot ordered by creation time. The order holds for the
// duration of one query only.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Reel, error) {
	f.Operator = strings.TrimSpace(f.Operator)
	f.ReelNo = strings.TrimSpace(f.ReelNo)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	reels, err := s.store.ListReels(ctx, f)
	if err != nil {
		return nil, s.storeErr("list reels", "reel", string(f.Kind), err)
	}
	return reels, nil
}

// Update corrects intake fields. Lifecycle fields are owned by the
// assignment and output operations and cannot be touched here.
func (s *Service) Update(ctx context.Context, id string, p models.DetailPatch) (r *models.Reel, err error) {
	defer s.track("update", time.Now(), &err)

	if p.Empty() {
		return nil, invalid("", "nothing to update")
	}
	dims := map[models.Dimension]string{}
	for _, f := range []struct {
		name  string
		value **string
	}{
		{"reelNo", &p.ReelNo},
		{"size", &p.Size},
		{"gsm", &p.GSM},
		{"quality", &p.Quality},
		{"mill", &p.Mill},
	} {
		if *f.value == nil {
			continue
		}
		t := strings.TrimSpace(**f.value)
		if t == "" {
			return nil, invalid(f.name, "must not be empty")
		}
		*f.value = &t
		if d := models.Dimension(f.name); d.Valid() {
			dims[d] = t
		}
	}
	if p.Weight != nil && (!finite(*p.Weight) || *p.Weight <= 0) {
		return nil, invalid("weight", "must be a positive number")
	}
	if err := s.checkOptions(ctx, dims); err != nil {
		return nil, err
	}

	err = s.withLock(ctx, reelKey(id), func() error {
		// a ruled reel's ream weight follows its gsm in the same write
		if p.GSM != nil {
			cur, gerr := s.store.GetReel(ctx, id)
			if gerr != nil {
				return s.storeErr("get reel", "reel", id, gerr)
			}
			if cur.Ruled() {
				rw, rerr := reamWeightFor(cur.ReelNo, *p.GSM, cur.OutputLength, cur.OutputWidth)
				if rerr != nil {
					return rerr
				}
				p.ReamWeight = &rw
			}
		}
		var perr error
		r, perr = s.store.PatchReel(ctx, id, p, s.now())
		if perr != nil {
			return s.storeErr("patch reel details", "reel", id, perr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reel updated", "reel_id", id)
	s.emit(ctx, Event{Type: EventUpdated, ReelID: id})
	return r, nil
}

// Annotate writes the remarks column only, at any stage.
func (s *Service) Annotate(ctx context.Context, id, remarks string) (r *models.Reel, err error) {
	defer s.track("annotate", time.Now(), &err)

	err = s.withLock(ctx, reelKey(id), func() error {
		var perr error
		r, perr = s.store.PatchReel(ctx, id, models.RemarksPatch{Remarks: remarks}, s.now())
		if perr != nil {
			return s.storeErr("patch reel remarks", "reel", id, perr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, Event{Type: EventAnnotated, ReelID: id})
	return r, nil
}

// Delete removes a reel for good. Restricting deletion to ruled reels is a
// caller convention and is not checked here.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer s.track("delete", time.Now(), &err)

	err = s.withLock(ctx, reelKey(id), func() error {
		if derr := s.store.DeleteReel(ctx, id); derr != nil {
			return s.storeErr("delete reel", "reel", id, derr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("reel deleted", "reel_id", id)
	s.emit(ctx, Event{Type: EventDeleted, ReelID: id})
	return nil
}

// checkOptions enforces membership for every dimension that has a
// non-empty option set. Dimensions with no options configured accept any value.
func (s *Service) checkOptions(ctx context.Context, values map[models.Dimension]string) error {
	for _, dim := range models.Dimensions {
		v, ok := values[dim]
		if !ok {
			continue
		}
		allowed, err := s.store.Options(ctx, dim)
		if err != nil {
			return s.storeErr("load options", "option", string(dim), err)
		}
		if len(allowed) > 0 && !slices.Contains(allowed, v) {
			return invalid(string(dim), "%q is not a registered %s", v, dim)
		}
	}
	return nil
}

func parseWeight(raw string) (float64, error) {
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(w) || w <= 0 {
		return 0, invalid("weight", "%q is not a positive number", raw)
	}
	return w, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
