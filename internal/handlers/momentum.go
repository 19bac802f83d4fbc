package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultAnalysisTimeout bounds a background enrichment request
const DefaultAnalysisTimeout = 90 * time.Second

// MomentumHandler serves the momentum snapshot and drives enrichment
type MomentumHandler struct {
	session         *session.Session
	logger          *zap.Logger
	analysisTimeout time.Duration
}

// MomentumHandlerOption configures a MomentumHandler
type MomentumHandlerOption func(*MomentumHandler)

// WithAnalysisTimeout sets how long a background analysis may run
func WithAnalysisTimeout(d time.Duration) MomentumHandlerOption {
	return func(h *MomentumHandler) {
		if d > 0 {
			h.analysisTimeout = d
		}
	}
}

// NewMomentumHandler creates a new momentum handler
func NewMomentumHandler(s *session.Session, log *zap.Logger, opts ...MomentumHandlerOption) *MomentumHandler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &MomentumHandler{
		session:         s,
		logger:          log,
		analysisTimeout: DefaultAnalysisTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AnalysisStatus is the body of GET /analysis
type AnalysisStatus struct {
	Analyzing bool                   `json:"analyzing"`
	Available bool                   `json:"available"`
	Analysis  *models.AnalysisResult `json:"analysis"`
}

// RegisterRoutes registers momentum and analysis routes
func (h *MomentumHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/momentum", h.GetMomentum).Methods("GET")
	r.HandleFunc("/analysis", h.StartAnalysis).Methods("POST")
	r.HandleFunc("/analysis", h.GetAnalysis).Methods("GET")
	r.HandleFunc("/analysis", h.ClearAnalysis).Methods("DELETE")
}

// GetMomentum returns the session snapshot
func (h *MomentumHandler) GetMomentum(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// StartAnalysis starts an enrichment request and returns immediately.
// The request outlives the HTTP call, so it runs on a detached context with its own deadline.
func (h *MomentumHandler) StartAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.analysisTimeout)
	task, err := h.session.StartAnalysis(ctx)
	if err != nil {
		cancel()
		switch {
		case errors.Is(err, session.ErrNoAnalyzer):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI analysis is not configured")
		case errors.Is(err, session.ErrAnalysisInProgress):
			respondJSONError(w, http.StatusConflict, "Conflict", "An analysis is already in progress")
		default:
			h.logger.Error("failed_to_start_analysis", zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start analysis")
		}
		return
	}

	go func() {
		<-task.Done()
		cancel()
	}()

	respondJSON(w, http.StatusAccepted, h.session.Snapshot())
}

// GetAnalysis reports whether an analysis is running and the latest result
func (h *MomentumHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, _ := h.session.Analysis()
	respondJSON(w, http.StatusOK, AnalysisStatus{
		Analyzing: h.session.Analyzing(),
		Available: h.session.HasAnalyzer(),
		Analysis:  result,
	})
}

// ClearAnalysis drops the latest result so the local score is shown again
func (h *MomentumHandler) ClearAnalysis(w http.ResponseWriter, r *http.Request) {
	h.session.ClearAnalysis()
	w.WriteHeader(http.StatusNoContent)
}
