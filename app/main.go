package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kitsunelab/marketcal/app/api"
	"github.com/kitsunelab/marketcal/app/cache"
	"github.com/kitsunelab/marketcal/app/calendar"
	"github.com/kitsunelab/marketcal/app/cfg"
	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/earnings"
	"github.com/kitsunelab/marketcal/app/sources"
	"github.com/kitsunelab/marketcal/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting Market Calendar server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	schemaVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", schemaVersion, "dirty", dirty)

	srcs, err := sources.Load(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources configuration", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Sources configured",
		"economics_enabled", srcs.Economics.Enabled,
		"earnings_enabled", srcs.Earnings.Enabled)

	// Initialize repositories
	economicsRepo := database.NewEconomicsRepo(db)
	earningsRepo := database.NewEarningsRepo(db)
	watchlistRepo := database.NewWatchlistRepo(db)

	// Initialize core components
	parser, err := calendar.NewParser()
	if err != nil {
		slog.Error("Failed to initialize calendar parser", "error", err)
		os.Exit(1)
	}
	extractor := calendar.NewExtractor()

	httpClient := &http.Client{}
	earningsClient := earnings.NewClient(httpClient, srcs.Earnings, appCfg.UserAgent)

	// Response cache is optional: without a Redis address, or when Redis
	// is unreachable, calendar reads go straight to the database.
	var responseCache api.ResponseCache
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewCache(appCfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, response caching disabled", "addr", appCfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			responseCache = redisCache
		}
	}

	// Initialize and start scheduler
	scheduler := tasks.NewScheduler(srcs, httpClient, extractor, parser, earningsClient,
		economicsRepo, earningsRepo)
	slog.Info("Starting background scheduler",
		"workers", appCfg.WorkerCount,
		"interval_seconds", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	handler := api.NewHandler(economicsRepo, earningsRepo, watchlistRepo, scheduler,
		responseCache, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
