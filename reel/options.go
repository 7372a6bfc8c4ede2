package reel

import (
	"context"
	"strings"
	"time"

	"papermill_reel_tracker/models"
)

// ParseDimension accepts a dimension name in any case.
func ParseDimension(raw string) (models.Dimension, error) {
	d := models.Dimension(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", invalid("dimension", "unknown dimension %q", raw)
	}
	return d, nil
}

// AddOption appends value to the dimension's set. An exact duplicate is a
// no-op and reports added == false.
func (s *Service) AddOption(ctx context.Context, dim models.Dimension, value string) (added bool, err error) {
	defer s.track("add_option", time.Now(), &err)

	if !dim.Valid() {
		return false, invalid("dimension", "unknown dimension %q", dim)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false, invalid("value", "required")
	}
	added, err = s.store.AppendOption(ctx, dim, value)
	if err != nil {
		return false, s.storeErr("append option", "option", string(dim), err)
	}
	if added {
		s.log.Info("option added", "dimension", dim, "value", value)
		s.emit(ctx, Event{Type: EventOptionAdded, Dimension: dim, Value: value})
	}
	return added, nil
}

// RemoveOption drops value from the set. Reels that already carry it keep it.
func (s *Service) RemoveOption(ctx context.Context, dim models.Dimension, value string) (err error) {
	defer s.track("remove_option", time.Now(), &err)

	if !dim.Valid() {
		return invalid("dimension", "unknown dimension %q", dim)
	}
	value = strings.TrimSpace(value)
	removed, err := s.store.RemoveOption(ctx, dim, value)
	if err != nil {
		return s.storeErr("remove option", "option", string(dim), err)
	}
	if !removed {
		return &NotFoundError{Kind: string(dim) + " option", ID: value}
	}
	s.log.Info("option removed", "dimension", dim, "value", value)
	s.emit(ctx, Event{Type: EventOptionRemoved, Dimension: dim, Value: value})
	return nil
}

// ListOptions returns the values in insertion order, never nil.
func (s *Service) ListOptions(ctx context.Context, dim models.Dimension) ([]string, error) {
	if !dim.Valid() {
		return nil, invalid("dimension", "unknown dimension %q", dim)
	}
	vals, err := s.store.Options(ctx, dim)
	if err != nil {
		return nil, s.storeErr("load options", "option", string(dim), err)
	}
	if vals == nil {
		vals = []string{}
	}
	return vals, nil
}

func (s *Service) AllOptions(ctx context.Context) (map[models.Dimension][]string, error) {
	out := make(map[models.Dimension][]string, len(models.Dimensions))
	for _, d := range models.Dimensions {
		vals, err := s.ListOptions(ctx, d)
		if err != nil {
			return nil, err
		}
		out[d] = vals
	}
	return out, nil
}
