// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/audiogram/internal/app"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/internal/domain/severity"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ParticipantDependencies
	AudiogramDependencies
	ReportDependencies
}

// ParticipantDependencies selects and analyzes dataset records.
type ParticipantDependencies interface {
	First(ctx context.Context) (service.Analysis, error)
	Random(ctx context.Context) (service.Analysis, error)
	ByID(ctx context.Context, id int64) (service.Analysis, error)
	At(ctx context.Context, i int) (service.Analysis, error)
}

// AudiogramDependencies analyzes manual entries.
type AudiogramDependencies interface {
	AnalyzeManual(ctx context.Context, entry model.ManualEntry) service.Analysis
}

// ReportDependencies exposes cohort and dataset level information.
type ReportDependencies interface {
	Summary(ctx context.Context) (service.Summary, error)
	Dataset(ctx context.Context) service.DatasetStatus
	Bands() []severity.Band
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	participantHandler *ParticipantHandler
	audiogramHandler   *AudiogramHandler
	reportHandler      *ReportHandler
	dashboardHandler   *dashboardHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxBodyBytes int64
}

// WithMaxBodyBytes caps request bodies for POST /api/audiograms.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		participantHandler: NewParticipantHandler(deps),
		audiogramHandler:   NewAudiogramHandler(deps, o.maxBodyBytes),
		reportHandler:      NewReportHandler(deps),
		dashboardHandler:   newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleHealth)
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/participants", MetricsMiddleware(s.participantHandler.HandleByIndex, "participants_index"))
	mux.HandleFunc("/api/participants/", MetricsMiddleware(s.participantHandler.HandleParticipant, "participants"))
	mux.HandleFunc("/api/audiograms", MetricsMiddleware(s.audiogramHandler.HandlePostAudiogram, "audiograms"))
	mux.HandleFunc("/api/summary", MetricsMiddleware(s.reportHandler.HandleSummary, "summary"))
	mux.HandleFunc("/api/classification", MetricsMiddleware(s.reportHandler.HandleClassification, "classification"))
	mux.HandleFunc("/api/dataset", MetricsMiddleware(s.reportHandler.HandleDataset, "dataset"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors into status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, "index_out_of_range", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
