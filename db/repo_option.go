package db

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papermill_reel_tracker/models"
)

// Options

func (r *Repo) Options(ctx context.Context, dim models.Dimension) ([]string, error) {
	var opt models.ReelOption
	err := r.DB.WithContext(ctx).First(&opt, "dimension = ?", dim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("option", string(dim), err)
	}
	return []string(opt.Values), nil
}

// AppendOption: make sure the row exists, lock it, append if missing.
func (r *Repo) AppendOption(ctx context.Context, dim models.Dimension, value string) (bool, error) {
	var added bool
	err := r.editOption(ctx, dim, func(opt *models.ReelOption) bool {
		if slices.Contains(opt.Values, value) {
			return false
		}
		opt.Values = append(opt.Values, value)
		added = true
		return true
	})
	return added, err
}

func (r *Repo) RemoveOption(ctx context.Context, dim models.Dimension, value string) (bool, error) {
	var removed bool
	err := r.editOption(ctx, dim, func(opt *models.ReelOption) bool {
		i := slices.Index(opt.Values, value)
		if i < 0 {
			return false
		}
		opt.Values = slices.Delete(opt.Values, i, i+1)
		removed = true
		return true
	})
	return removed, err
}

// editOption runs edit on the locked option row. Nothing is written when
// edit reports no change.
func (r *Repo) editOption(ctx context.Context, dim models.Dimension, edit func(*models.ReelOption) bool) error {
	seed := models.ReelOption{Dimension: dim, Values: []string{}, UpdatedAt: time.Now().UTC()}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return mapErr("option", string(dim), err)
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var opt models.ReelOption
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&opt, "dimension = ?", dim).Error; err != nil {
			return err
		}
		if !edit(&opt) {
			return nil
		}
		return tx.Model(&models.ReelOption{}).
			Where("dimension = ?", dim).
			Updates(map[string]any{"option_values": opt.Values, "updated_at": time.Now().UTC()}).Error
	})
	return mapErr("option", string(dim), err)
}
