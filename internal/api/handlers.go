package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/analytics"
	"github.com/BinaryFighter-01/commentiq/internal/apperr"
	"github.com/BinaryFighter-01/commentiq/internal/models"
	"github.com/BinaryFighter-01/commentiq/internal/notifications"
)

const (
	defaultMaxComments  = 100
	defaultTimelineDays = 30
)

type analyzeRequest struct {
	URL         string `json:"url"`
	UserID      string `json:"user_id"`
	MaxComments int    `json:"max_comments"`
}

type analyzeResponse struct {
	Video       *models.VideoMetadata `json:"video"`
	Batch       *models.BatchReport   `json:"batch"`
	Aggregation *models.Aggregation   `json:"aggregation,omitempty"`
}

type analyticsResponse struct {
	Aggregation *models.Aggregation    `json:"aggregation"`
	Timeline    []models.TimelinePoint `json:"timeline"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.orchestrator.GetMetrics()))
}

// analyzeHandler resolves the URL, fetches the video and its comments, runs
// the analysis batch and returns the rollup. A batch with some failed
// comments is still a 200; the counts in the batch report tell the caller
// how partial it was.
func (s *Server) analyzeHandler(platform models.Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := s.sources[platform]
		if !ok || !src.IsEnabled() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": string(platform) + " source is not configured",
			})
			return
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Wrap(apperr.KindInvalidInput, "invalid request body", err))
			return
		}
		if req.URL == "" {
			writeError(w, apperr.New(apperr.KindInvalidInput, "url is required"))
			return
		}
		if req.UserID == "" {
			req.UserID = "anonymous"
		}
		if req.MaxComments <= 0 {
			req.MaxComments = defaultMaxComments
		}

		ctx := r.Context()

		videoID, err := src.ExtractVideoID(req.URL)
		if err != nil {
			writeError(w, err)
			return
		}

		video, err := src.FetchVideo(ctx, videoID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.store.UpsertVideo(ctx, video); err != nil {
			writeError(w, apperr.Wrap(apperr.KindStorage, "failed to store video", err))
			return
		}

		comments, err := src.FetchComments(ctx, videoID, req.MaxComments)
		if err != nil {
			writeError(w, err)
			return
		}
		for i := range comments {
			comments[i].VideoID = video.ID
		}

		report, err := s.orchestrator.AnalyzeBatch(ctx, req.UserID, video, comments)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := analyzeResponse{Video: video, Batch: report}

		agg, err := s.aggregator.Refresh(ctx, video.ID)
		if err != nil && !errors.Is(err, analytics.ErrNoAnalyses) {
			logrus.Errorf("Failed to aggregate video %s: %v", video.ID, err)
		}
		if agg != nil {
			s.orchestrator.RecordSentiments(agg)
			resp.Aggregation = agg
		}

		if s.notifier != nil {
			go func() {
				notification := &notifications.Report{Video: video, Batch: report, Aggregation: agg}
				if err := s.notifier.SendReport(notification); err != nil {
					logrus.Errorf("Failed to send report for batch %s: %v", report.BatchID, err)
				}
			}()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// analyticsHandler returns the stored rollup and derived timeline for a video
func (s *Server) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		writeError(w, apperr.New(apperr.KindInvalidInput, "videoId query parameter is required"))
		return
	}

	days := defaultTimelineDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apperr.New(apperr.KindInvalidInput, "days must be a positive integer"))
			return
		}
		days = parsed
	}

	agg, err := s.store.GetAggregation(r.Context(), videoID)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindStorage, "failed to load aggregation", err))
		return
	}
	if agg == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "no analytics for video "+videoID))
		return
	}

	timeline, err := s.aggregator.TimelineFor(r.Context(), videoID, days)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindStorage, "failed to derive timeline", err))
		return
	}

	writeJSON(w, http.StatusOK, analyticsResponse{Aggregation: agg, Timeline: timeline})
}

// usageHandler returns a user's consumption counters
func (s *Server) usageHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, apperr.New(apperr.KindInvalidInput, "userId query parameter is required"))
		return
	}

	metrics, err := s.store.GetUsage(r.Context(), userID)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindStorage, "failed to load usage", err))
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		logrus.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
	})
}
