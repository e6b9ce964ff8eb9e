package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinelle-systems/caseflow/internal/alertstore"
	"github.com/sentinelle-systems/caseflow/internal/audit"
	"github.com/sentinelle-systems/caseflow/internal/config"
	"github.com/sentinelle-systems/caseflow/internal/handlers"
	"github.com/sentinelle-systems/caseflow/internal/lifecycle"
	"github.com/sentinelle-systems/caseflow/internal/logging"
	"github.com/sentinelle-systems/caseflow/internal/messaging"
	"github.com/sentinelle-systems/caseflow/internal/performance"
	"github.com/sentinelle-systems/caseflow/internal/policy"
	"github.com/sentinelle-systems/caseflow/internal/repository"
	"github.com/sentinelle-systems/caseflow/internal/server"
	"github.com/sentinelle-systems/caseflow/internal/sweeper"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the case engine API and alert sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return runServe(cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not run migrations at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfg *config.Config) error {
	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)

	if !skipMigrations {
		log.Info("running database migrations")
		if err := runMigrations(cfg, false); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := repository.NewPostgresStore(ctx, cfg.Database.Postgres.ConnString())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer store.Close()

	var alerts alertstore.Store
	if cfg.Redis.Enabled {
		rs, err := alertstore.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		alerts = rs
		log.Info("alert store: redis", slog.String("url", cfg.Redis.URL))
	} else {
		alerts = alertstore.NewInMemoryStore()
		log.Info("alert store: in-memory")
	}
	defer alerts.Close()

	var events lifecycle.EventPublisher
	if cfg.NATS.Enabled {
		natsCfg := messaging.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		pub, err := messaging.NewPublisher(natsCfg, log.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer pub.Close()
		events = pub
		log.Info("event publisher: nats", slog.String("url", cfg.NATS.URL))
	}

	pol := buildPolicy(cfg)
	signer := audit.NewSigner(cfg.Audit.Secret)
	svc := lifecycle.NewService(store, pol, signer, events, nil)
	perf := performance.New(store)

	if cfg.Sweep.Enabled {
		sw := sweeper.New(store, alerts, pol, sweeper.Config{
			Interval: cfg.Sweep.Interval,
			Timeout:  cfg.Sweep.Timeout,
			Workers:  cfg.Sweep.Workers,
		}, log.Logger, nil)
		go sw.Run(ctx)
	} else {
		log.Warn("alert sweep disabled")
	}

	handler := handlers.NewHandler(svc, alerts, perf, log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("caseflow listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildPolicy(cfg *config.Config) *policy.Policy {
	pol := policy.Default()
	if cfg.Policy.StagnationWindow > 0 {
		pol.StagnationWindow = cfg.Policy.StagnationWindow
	}
	if cfg.Policy.ExpertiseDwell > 0 {
		pol.ExpertiseDwell = cfg.Policy.ExpertiseDwell
	}
	if cfg.Policy.CriticalOverdue > 0 {
		pol.CriticalOverdue = cfg.Policy.CriticalOverdue
	}
	return pol
}
