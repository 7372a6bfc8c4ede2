package reel

import (
	"context"
	"sort"
	"strings"
	"time"

	"papermill_reel_tracker/models"
)

// Store is the persistence the core runs against. Implementations offer no
// cross-record transaction; a single PatchReel call is the unit of atomicity.
// Missing records are reported with an error wrapping ErrNotFound.
type Store interface {
	InsertReel(ctx context.Context, r *models.Reel) error
	GetReel(ctx context.Context, id string) (*models.Reel, error)
	// ListReels returns the matches ordered by CreatedAt, then ID.
	ListReels(ctx context.Context, f Filter) ([]models.Reel, error)
	PatchReel(ctx context.Context, id string, p models.Patch, now time.Time) (*models.Reel, error)
	DeleteReel(ctx context.Context, id string) error

	// Options returns the values of one dimension; nil when none are set.
	Options(ctx context.Context, dim models.Dimension) ([]string, error)
	// AppendOption atomically appends value unless already present.
	AppendOption(ctx context.Context, dim models.Dimension, value string) (bool, error)
	RemoveOption(ctx context.Context, dim models.Dimension, value string) (bool, error)
}

type FilterKind string

const (
	FilterAll          FilterKind = "all"
	FilterUnassigned   FilterKind = "unassigned"
	FilterAssignedOpen FilterKind = "assigned_open"
	FilterCompleted    FilterKind = "completed"
	FilterCompletedBy  FilterKind = "completed_by"
)

// Filter selects reels. Operator is required for the per-operator kinds.
// ReelNo is an optional case-insensitive substring match.
type Filter struct {
	Kind     FilterKind
	Operator string
	ReelNo   string
}

func Unassigned() Filter { return Filter{Kind: FilterUnassigned} }
func Completed() Filter  { return Filter{Kind: FilterCompleted} }

func AssignedOpen(operator string) Filter {
	return Filter{Kind: FilterAssignedOpen, Operator: operator}
}

func CompletedBy(operator string) Filter {
	return Filter{Kind: FilterCompletedBy, Operator: operator}
}

func (f Filter) Validate() error {
	switch f.Kind {
	case FilterAll, FilterUnassigned, FilterCompleted:
		return nil
	case FilterAssignedOpen, FilterCompletedBy:
		if strings.TrimSpace(f.Operator) == "" {
			return invalid("operator", "required for filter %s", f.Kind)
		}
		return nil
	case "":
		return invalid("filter", "required")
	}
	return invalid("filter", "unknown filter %q", f.Kind)
}

// Match is the reference predicate. Stores that cannot push the filter
// down evaluate it per record.
func (f Filter) Match(r *models.Reel) bool {
	if f.ReelNo != "" && !strings.Contains(strings.ToLower(r.ReelNo), strings.ToLower(f.ReelNo)) {
		return false
	}
	switch f.Kind {
	case FilterUnassigned:
		return r.AssignedTo == ""
	case FilterAssignedOpen:
		return r.AssignedTo == f.Operator && r.RuledDate == nil
	case FilterCompleted:
		return r.RuledDate != nil
	case FilterCompletedBy:
		return r.AssignedTo == f.Operator && r.RuledDate != nil
	default:
		return true
	}
}

// SortReels orders reels the way every query returns them.
func SortReels(reels []models.Reel) {
	sort.SliceStable(reels, func(i, j int) bool {
		if !reels[i].CreatedAt.Equal(reels[j].CreatedAt) {
			return reels[i].CreatedAt.Before(reels[j].CreatedAt)
		}
		return reels[i].ID < reels[j].ID
	})
}

// Locker serialises writers per key. Unlock must be safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func reelKey(id string) string     { return "reel:" + id }
func operatorKey(op string) string { return "operator:" + op }

// Publisher fans lifecycle events out to dashboards.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Observer receives per-operation timings and computed yields.
type Observer interface {
	ObserveOperation(op string, err error, d time.Duration)
	ObserveYield(percent float64)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error, time.Duration) {}
func (nopObserver) ObserveYield(float64)                          {}
