package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/opensignage/osign-go/internal/authz"
	"github.com/opensignage/osign-go/internal/cache"
	"github.com/opensignage/osign-go/internal/config"
	"github.com/opensignage/osign-go/internal/handler"
	"github.com/opensignage/osign-go/internal/logging"
	"github.com/opensignage/osign-go/internal/middleware"
	"github.com/opensignage/osign-go/internal/scheduler"
	"github.com/opensignage/osign-go/internal/service"
	"github.com/opensignage/osign-go/internal/session"
	"github.com/opensignage/osign-go/internal/store"
	"github.com/opensignage/osign-go/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oSign - digital signage management server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OSIGN_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OSIGN_DB_PATH          SQLite database path (default: ./data/osign.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OSIGN_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OSIGN_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OSIGN_REDIS_URL        Redis URL for the distributed feed cache (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("osign %s (commit: %s, built: %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load a .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade the logger so WARN and ERROR records also land in the
	// event log table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Cache layer: memory by default, Redis when configured
	var cacheManager *cache.Manager
	if cfg.UseRedisCache() {
		cacheManager, err = cache.NewManagerWithRedis(cfg.RedisURL, cfg.CachePrefix, service.FeedTTL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		slog.Info("redis feed cache enabled", "prefix", cfg.CachePrefix)
	} else {
		cacheManager = cache.NewManager(service.FeedTTL)
		slog.Info("in-memory feed cache enabled")
	}
	cacheManager.Start()
	defer cacheManager.Stop()

	sessionManager := session.New(db, cfg.IsDevelopment())
	engine := authz.New(db, cacheManager.Roles)

	scheduleService := service.NewScheduleService(db)
	displayService := service.NewDisplayService(db, scheduleService, cacheManager.Feed)
	layoutService := service.NewLayoutService(db)
	eventService := service.NewEventService(db)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	feedRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Maintenance scheduler: event pruning and stale-display reporting
	registry := scheduler.NewRegistry(db, logger)
	sched := scheduler.New(db, registry, logger,
		time.Duration(cfg.EventRetentionDays)*24*time.Hour)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	h := handler.NewHandler(handler.Config{
		DB:        db,
		Engine:    engine,
		Layouts:   layoutService,
		Schedules: scheduleService,
		Displays:  displayService,
		Events:    eventService,
		Sessions:  sessionManager,
		LoginGate: loginProtection,
		Jobs:      registry,
	})
	r := h.Routes(handler.RouterConfig{
		IsDevelopment:   cfg.IsDevelopment(),
		FeedRateLimiter: feedRateLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
