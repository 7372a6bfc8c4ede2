package db

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"papermill_reel_tracker/models"
	"papermill_reel_tracker/reel"
)

// Repo is the postgres reel.Store. Every write touches one row.
type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

var _ reel.Store = (*Repo)(nil)

// Reels

func (r *Repo) InsertReel(ctx context.Context, rl *models.Reel) error {
	return mapErr("reel", rl.ID, r.DB.WithContext(ctx).Create(rl).Error)
}

func (r *Repo) GetReel(ctx context.Context, id string) (*models.Reel, error) {
	var rl models.Reel
	if err := r.DB.WithContext(ctx).First(&rl, "id = ?", id).Error; err != nil {
		return nil, mapErr("reel", id, err)
	}
	return &rl, nil
}

func (r *Repo) ListReels(ctx context.Context, f reel.Filter) ([]models.Reel, error) {
	q := r.DB.WithContext(ctx).Model(&models.Reel{})
	switch f.Kind {
	case reel.FilterUnassigned:
		q = q.Where("assigned_to = ''")
	case reel.FilterAssignedOpen:
		q = q.Where("assigned_to = ? AND ruled_date IS NULL", f.Operator)
	case reel.FilterCompleted:
		q = q.Where("ruled_date IS NOT NULL")
	case reel.FilterCompletedBy:
		q = q.Where("assigned_to = ? AND ruled_date IS NOT NULL", f.Operator)
	default:
		// all
	}
	if s := strings.TrimSpace(f.ReelNo); s != "" {
		q = q.Where("LOWER(reel_no) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	reels := []models.Reel{}
	if err := q.Order("created_at ASC, id ASC").Find(&reels).Error; err != nil {
		return nil, mapErr("reel", string(f.Kind), err)
	}
	return reels, nil
}

// PatchReel updates only the patch's columns, then re-reads the row inside
// the same transaction so the caller sees what was stored.
func (r *Repo) PatchReel(ctx context.Context, id string, p models.Patch, now time.Time) (*models.Reel, error) {
	var out models.Reel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reel{}).Where("id = ?", id).Updates(p.Columns(now))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapErr("reel", id, err)
	}
	return &out, nil
}

func (r *Repo) DeleteReel(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.Reel{}, "id = ?", id)
	if res.Error != nil {
		return mapErr("reel", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return mapErr("reel", id, gorm.ErrRecordNotFound)
	}
	return nil
}
