package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"truckslot/internal/api"
	"truckslot/internal/availability"
	"truckslot/internal/capacity"
	"truckslot/internal/config"
	"truckslot/internal/db"
	"truckslot/internal/events"
	"truckslot/internal/metrics"
	"truckslot/internal/ratelimit"
	"truckslot/internal/schedule"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with health, metrics, backups and catalogue reload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, &logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	database, err := db.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unavailable at startup")
		}
		cancel()
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		if rdb != nil {
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.RequestsPerMinute, time.Minute, "")
		} else {
			limiter = ratelimit.NewLocalLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		}
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	bus := events.NewEventBus(logger)
	bus.Subscribe("*", events.LogHandler(logger))

	resolver := capacity.NewResolver(cfg.TieBreaks()...)
	avail := availability.NewService(database, resolver, bus, logger, cfg.Availability.MaxDays)
	sched := schedule.NewService(database, avail, bus, logger, cfg.Capacity.SlotAdjustmentPriority)

	err = config.WatchTerminals(ctx, cfg.Terminals.Path, cfg.TerminalsReloadInterval(), logger, func(tc *config.TerminalsConfig) {
		if _, err := database.SyncTerminalsFromConfig(ctx, tc); err != nil {
			logger.Error().Err(err).Msg("terminal catalogue sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("load terminals catalogue: %w", err)
	}

	if cfg.Backup.Enabled {
		go startBackupLoop(ctx, database, cfg, logger)
	}

	checks := map[string]api.ReadyCheck{"db": database.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, api.HealthHandler(checks, time.Second), logger)

	srv := api.NewHTTPServer(api.Options{
		Address:      cfg.HTTP.Address,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
		Limiter:      limiter,
		RateLimit: ratelimit.Options{
			FailOpen:          cfg.RateLimit.FailOpen,
			TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
		},
	}, avail, sched, logger)

	logger.Info().Str("version", Version).Msg("capacity service started")
	return srv.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, handler http.Handler, logger *zerolog.Logger) {
	listenAndShutdown(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	listenAndShutdown(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: api.MetricsHandler()}, "metrics", logger)
}

func listenAndShutdown(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msgf("%s server error", name)
	}
}

func startBackupLoop(ctx context.Context, database *db.DB, cfg *config.Config, logger *zerolog.Logger) {
	if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	// first backup shortly after start
	select {
	case <-time.After(time.Minute):
		runBackupTask(ctx, database, cfg, logger)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(cfg.BackupInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runBackupTask(ctx, database, cfg, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runBackupTask(ctx context.Context, database *db.DB, cfg *config.Config, logger *zerolog.Logger) {
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(cfg.Backup.Path, fmt.Sprintf("truckslot_%s.db", timestamp))

	logger.Info().Str("source", database.Path()).Str("path", dest).Msg("starting database backup")
	if err := database.Backup(ctx, dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
	} else {
		logger.Info().Msg("backup completed successfully")
	}

	deleted, err := database.CleanupBackups(cfg.Backup.Path, cfg.BackupRetention())
	if err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}
