package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/analysis"
	"github.com/BinaryFighter-01/commentiq/internal/analytics"
	"github.com/BinaryFighter-01/commentiq/internal/api"
	"github.com/BinaryFighter-01/commentiq/internal/cache"
	"github.com/BinaryFighter-01/commentiq/internal/config"
	"github.com/BinaryFighter-01/commentiq/internal/notifications"
	"github.com/BinaryFighter-01/commentiq/internal/provider"
	"github.com/BinaryFighter-01/commentiq/internal/scheduler"
	"github.com/BinaryFighter-01/commentiq/internal/sources"
	"github.com/BinaryFighter-01/commentiq/internal/storage"
	"github.com/BinaryFighter-01/commentiq/internal/usage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting CommentIQ")

	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	analysisCache := cache.New(store, cfg.EnableAICache, cfg.CacheTTL)

	var aiProvider provider.Provider
	if cfg.MockAIProvider {
		logrus.Warn("Using mock AI provider; analysis results are synthetic")
		aiProvider = provider.NewMockProvider()
	} else {
		aiProvider = provider.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}

	limiter := usage.NewLimiter(store, cfg.MaxAnalysesPerUserPerDay, cfg.CostPerAnalysisUSD)
	orchestrator := analysis.NewOrchestrator(analysisCache, aiProvider, store, limiter, cfg.AnalysisBatchSize, cfg.AnalysisBatchDelay)
	aggregator := analytics.NewService(store)
	notifier := notifications.NewService(cfg)

	platformSources := []sources.Source{
		sources.NewYouTubeSource(cfg.YouTubeAPIKey),
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
	}
	for _, src := range platformSources {
		if !src.IsEnabled() {
			logrus.Warnf("Source %s disabled, missing credentials", src.GetName())
		}
	}

	schedulerService := scheduler.NewService(cfg, analysisCache, limiter)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := api.NewServer(cfg, store, orchestrator, aggregator, notifier, platformSources).HTTPServer()

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
