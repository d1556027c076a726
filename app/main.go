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

	"github.com/lysyi3m/rss-pulse/app/aggregator"
	"github.com/lysyi3m/rss-pulse/app/api"
	"github.com/lysyi3m/rss-pulse/app/cache"
	"github.com/lysyi3m/rss-pulse/app/cfg"
	"github.com/lysyi3m/rss-pulse/app/database"
	"github.com/lysyi3m/rss-pulse/app/feed"
	"github.com/lysyi3m/rss-pulse/app/fetcher"
	"github.com/lysyi3m/rss-pulse/app/forensics"
	"github.com/lysyi3m/rss-pulse/app/images"
	"github.com/lysyi3m/rss-pulse/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting RSS Pulse", "version", appCfg.Version, "port", appCfg.Port)

	if err := run(appCfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("RSS Pulse shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	var categories []feed.Category
	if appCfg.CategoriesFile != "" {
		loaded, err := feed.LoadCategories(appCfg.CategoriesFile)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		categories = loaded
		slog.Info("Loaded category table", "file", appCfg.CategoriesFile, "categories", len(categories))
	}
	categorizer := feed.NewCategorizer(categories)

	httpClient := &http.Client{}

	pipeline := aggregator.NewPipeline(
		feed.NewSourceList(appCfg.SourcesFile),
		fetcher.New(httpClient, fetcher.Options{
			Concurrency: appCfg.Concurrency,
			Timeout:     appCfg.FetchTimeoutDuration(),
			UserAgent:   appCfg.UserAgent,
		}),
		feed.NewParser(categorizer, feed.NewLanguageFilterer(), appCfg.EntriesPerFeed),
		images.NewResolver(httpClient, images.Options{
			ProbeTimeout: appCfg.ProbeTimeoutDuration(),
			UserAgent:    appCfg.UserAgent,
		}, nil),
		aggregator.Options{
			SampleSize:     appCfg.SampleSize,
			Concurrency:    appCfg.Concurrency,
			SectionCap:     appCfg.SectionCap,
			BreakingWindow: appCfg.BreakingWindowDuration(),
			Categories:     categorizer.Names(),
		},
	)

	var stats *database.SQLStatsRepository
	if appCfg.DBPath != "" {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

		stats = database.NewStatsRepository(db)
		pipeline.WithRecorder(stats)
	}

	var redisCache *cache.Cache
	if appCfg.RedisAddr != "" {
		c, err := cache.NewCache(appCfg.RedisAddr, appCfg.CacheTTLDuration())
		if err != nil {
			// The mirror is optional; serve without it.
			slog.Warn("Redis unavailable, publishing disabled", "addr", appCfg.RedisAddr, "error", err)
		} else {
			redisCache = c
			defer redisCache.Close()
			pipeline.WithPublisher(redisCache)
		}
	}

	feedCache := aggregator.NewCache(pipeline.Run, appCfg.CacheTTLDuration(), nil)

	handler := api.NewHandler(feedCache, appCfg.BaseUrl, appCfg.Version)
	if stats != nil {
		handler.WithStats(stats)
	}
	if redisCache != nil {
		handler.WithHealth(redisCache)
	}
	if appCfg.ForensicsURL != "" {
		inspector := forensics.NewInspector(
			forensics.NewRemoteAnalyzer(httpClient, appCfg.ForensicsURL),
			httpClient,
			forensics.InspectorOptions{Rate: appCfg.AnalyzeRate, UserAgent: appCfg.UserAgent},
		)
		handler.WithInspector(inspector)
		slog.Info("Image analysis enabled", "endpoint", appCfg.ForensicsURL, "rate", appCfg.AnalyzeRate)
	}

	if appCfg.WarmSchedule != "" {
		scheduler, err := tasks.NewScheduler(feedCache, appCfg.WarmSchedule, 1)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("Cache warming enabled", "schedule", appCfg.WarmSchedule)
	}

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: aggregator.CycleTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "sources", appCfg.SourcesFile, "sample_size", appCfg.SampleSize)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return serveErr
}
