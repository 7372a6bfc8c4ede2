package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"papermill_reel_tracker/badgerstore"
	"papermill_reel_tracker/config"
	"papermill_reel_tracker/db"
	"papermill_reel_tracker/events"
	"papermill_reel_tracker/extract"
	"papermill_reel_tracker/lock"
	"papermill_reel_tracker/metrics"
	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/session"
)

// short aliases for handlers
type Ctx = gin.Context
type H = gin.H

// App holds every long-lived dependency of the server.
type App struct {
	Router  *gin.Engine
	Config  config.Config
	Log     *slog.Logger
	Service *reel.Service

	DB     *gorm.DB           // postgres store only
	Badger *badgerstore.Store // badger store only
	RDB    *redis.Client
	NATS   *nats.Conn

	Sessions  *session.AppSessionStore
	Metrics   *metrics.Metrics
	Extractor *extract.Client
}

// OpenStore opens the configured reel store. Postgres is migrated on
// connect.
func OpenStore(cfg config.Config) (reel.Store, *gorm.DB, *badgerstore.Store, error) {
	switch cfg.Store {
	case config.StoreBadger:
		bs, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return bs, nil, bs, nil
	case config.StorePostgres:
		gdb, err := db.Connect(cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(gdb); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return db.NewRepo(gdb), gdb, nil, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// --- store ---
	store, gdb, bs, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	a.DB, a.Badger = gdb, bs

	// --- redis: sessions + locks ---
	a.RDB = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: 0})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.RDB.Ping(pctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.Sessions = session.NewAppSessionStore(a.RDB, cfg.SessionTTL)

	// --- events ---
	opts := []reel.Option{
		reel.WithLocker(lock.NewRedis(a.RDB, cfg.LockTTL, log)),
		reel.WithLogger(log),
	}
	if cfg.NATSURL != "" {
		a.NATS, err = events.Connect(cfg.NATSURL, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reel.WithPublisher(events.NewPublisher(a.NATS)))
	} else {
		log.Info("NATS_URL not set, lifecycle events are not published")
	}

	a.Metrics = metrics.New()
	opts = append(opts, reel.WithObserver(a.Metrics))
	a.Service = reel.NewService(store, opts...)
	a.Extractor = extract.NewClient(cfg.ExtractURL, 2*time.Minute)

	// --- gin ---
	r := gin.Default()
	r.Use(a.Metrics.Middleware())
	useCORS(r, cfg.WebOrigin)
	a.Router = r
	return a, nil
}

func (a *App) Close() {
	if a.NATS != nil {
		if err := a.NATS.Drain(); err != nil {
			a.Log.Warn("drain nats", "error", err)
		}
	}
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.Badger != nil {
		if err := a.Badger.Close(); err != nil {
			a.Log.Warn("close badger", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Ready checks the backing services for /healthz.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.RDB != nil {
		if err := a.RDB.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.PingContext(ctx); err != nil {
				errs = append(errs, fmt.Errorf("postgres: %w", err))
			}
		}
	}
	if a.NATS != nil && !a.NATS.IsConnected() {
		errs = append(errs, errors.New("nats: not connected"))
	}
	return errors.Join(errs...)
}
