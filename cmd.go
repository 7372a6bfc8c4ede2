package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"papermill_reel_tracker/app"
	"papermill_reel_tracker/config"
	"papermill_reel_tracker/db"
	"papermill_reel_tracker/reel"
	"papermill_reel_tracker/routes"
)

var version = "dev"

type rootOpts struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:          "reeltrack",
		Short:        "Paper reel lifecycle and yield tracking",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newReportCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// setup loads .env and the config, then installs the process logger.
func (o *rootOpts) setup() (config.Config, *slog.Logger, error) {
	config.LoadEnv()
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)
	return cfg, log, nil
}

func newServeCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			app.EnsureIssuerToken(&cfg, log, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			routes.RegisterRoutes(a.Router, a)

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           a.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", srv.Addr, "store", cfg.Store)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			log.Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		},
	}
}

func newMigrateCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				log.Info("nothing to migrate", "store", cfg.Store)
				return nil
			}
			gdb, err := db.Connect(cfg.DSN())
			if err != nil {
				return err
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			log.Info("schema up to date")
			return nil
		},
	}
}

func newReportCmd(opts *rootOpts) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the yield report of completed reels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			store, gdb, bs, err := app.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if bs != nil {
					_ = bs.Close()
				}
				if gdb != nil {
					if sqlDB, err := gdb.DB(); err == nil {
						_ = sqlDB.Close()
					}
				}
			}()

			rep, err := reel.NewService(store).YieldReport(cmd.Context(), strings.TrimSpace(operator))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderReport(rep))
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "only reels completed by this operator")
	return cmd
}
