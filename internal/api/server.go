// Package api exposes the HTTP surface: analysis triggers, analytics reads,
// health and metrics.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/BinaryFighter-01/commentiq/internal/analysis"
	"github.com/BinaryFighter-01/commentiq/internal/analytics"
	"github.com/BinaryFighter-01/commentiq/internal/config"
	"github.com/BinaryFighter-01/commentiq/internal/models"
	"github.com/BinaryFighter-01/commentiq/internal/notifications"
	"github.com/BinaryFighter-01/commentiq/internal/sources"
	"github.com/BinaryFighter-01/commentiq/internal/storage"
)

// Server wires handlers to the services they drive
type Server struct {
	config       *config.Config
	store        storage.Store
	orchestrator *analysis.Orchestrator
	aggregator   *analytics.Service
	notifier     notifications.Notifier
	sources      map[models.Platform]sources.Source
}

// NewServer creates the API server over the given services
func NewServer(cfg *config.Config, store storage.Store, orchestrator *analysis.Orchestrator, aggregator *analytics.Service, notifier notifications.Notifier, srcs []sources.Source) *Server {
	byPlatform := make(map[models.Platform]sources.Source, len(srcs))
	for _, src := range srcs {
		byPlatform[src.Platform()] = src
	}

	return &Server{
		config:       cfg,
		store:        store,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		notifier:     notifier,
		sources:      byPlatform,
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthHandler).Methods("GET")
	router.HandleFunc("/metrics", s.metricsHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze/youtube", s.analyzeHandler(models.PlatformYouTube)).Methods("POST")
	api.HandleFunc("/analyze/reddit", s.analyzeHandler(models.PlatformReddit)).Methods("POST")
	api.HandleFunc("/analytics", s.analyticsHandler).Methods("GET")
	api.HandleFunc("/usage", s.usageHandler).Methods("GET")

	return router
}

// HTTPServer wraps the router in a server with sane timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis batches can take a while
		IdleTimeout:  60 * time.Second,
	}
}
