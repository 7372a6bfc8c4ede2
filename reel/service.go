// Package reel is the reel lifecycle core: registry, assignment,
// output recording, option registry and yield reporting over a Store that
// offers no cross-record transactions.
package reel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store  Store
	locker Locker
	pub    Publisher
	obs    Observer
	now    func() time.Time
	newID  func() string
	log    *slog.Logger
}

type Option func(*Service)

func WithLocker(l Locker) Option            { return func(s *Service) { s.locker = l } }
func WithPublisher(p Publisher) Option      { return func(s *Service) { s.pub = p } }
func WithObserver(o Observer) Option        { return func(s *Service) { s.obs = o } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDs(newID func() string) Option    { return func(s *Service) { s.newID = newID } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.log = l } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		locker: NewLocalLocker(),
		pub:    nopPublisher{},
		obs:    nopObserver{},
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// track reports one operation to the observer; use with a named error.
func (s *Service) track(op string, start time.Time, err *error) {
	s.obs.ObserveOperation(op, *err, time.Since(start))
}

// storeErr turns a store failure into NotFoundError or StoreError.
func (s *Service) storeErr(op, kind, id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	s.log.Warn("store failure", "op", op, "id", id, "error", err)
	return &StoreError{Op: op, Err: err}
}

func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		s.log.Warn("lock failed", "key", key, "error", err)
		return &StoreError{Op: "lock " + key, Err: err}
	}
	defer unlock()
	return fn()
}

// emit publishes after the write settled; failures do not undo the write.
func (s *Service) emit(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event", "type", ev.Type, "reel_id", ev.ReelID, "error", err)
	}
}
