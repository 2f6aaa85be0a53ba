// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	service "github.com/okian/draftlens/internal/app"
	"github.com/okian/draftlens/internal/domain/engine"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/staleness"
	"github.com/okian/draftlens/internal/domain/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Scan(ctx context.Context, initial bool, screenshot []byte) (types.Payload, error)
	Payload() (types.Payload, bool)
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	SelectMySpot(ctx context.Context, heroOrder int, dbHeroID *int) (types.Payload, error)
	SelectMyModel(ctx context.Context, heroOrder int, dbHeroID *int) (types.Payload, error)
	Settings() engine.Settings

	Layout(ctx context.Context, res model.Resolution) (layout.Layout, layout.Source, float64, error)
	SaveCustomLayout(ctx context.Context, res model.Resolution, l layout.Layout) ([]layout.Violation, error)
	DeleteCustomLayout(ctx context.Context, res model.Resolution) error
	CustomLayouts(ctx context.Context) ([]string, error)
	CalibrateLayout(ctx context.Context, res model.Resolution, anchors []layout.Anchor) (layout.Layout, []layout.Violation, error)

	ModelGaps(ctx context.Context) (*staleness.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	scanHandler    *ScanHandler
	sessionHandler *SessionHandler
	layoutHandler  *LayoutHandler
	diagHandler    *DiagnosticsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		scanHandler:    NewScanHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		layoutHandler:  NewLayoutHandler(deps),
		diagHandler:    NewDiagnosticsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/settings", MetricsMiddleware(s.statsHandler.HandleSettings, "settings"))
	mux.HandleFunc("/scan", MetricsMiddleware(s.scanHandler.HandleScan, "scan"))
	mux.HandleFunc("/payload", MetricsMiddleware(s.scanHandler.HandlePayload, "payload"))
	mux.HandleFunc("/activate", MetricsMiddleware(s.sessionHandler.HandleActivate, "activate"))
	mux.HandleFunc("/deactivate", MetricsMiddleware(s.sessionHandler.HandleDeactivate, "deactivate"))
	mux.HandleFunc("/selection/spot", MetricsMiddleware(s.sessionHandler.HandleSelectSpot, "selection_spot"))
	mux.HandleFunc("/selection/model", MetricsMiddleware(s.sessionHandler.HandleSelectModel, "selection_model"))
	mux.HandleFunc("/layout", MetricsMiddleware(s.layoutHandler.HandleGetLayout, "layout"))
	mux.HandleFunc("/layout/custom", MetricsMiddleware(s.layoutHandler.HandleCustomLayout, "layout_custom"))
	mux.HandleFunc("/layout/calibrate", MetricsMiddleware(s.layoutHandler.HandleCalibrate, "layout_calibrate"))
	mux.HandleFunc("/diagnostics/model-gaps", MetricsMiddleware(s.diagHandler.HandleModelGaps, "model_gaps"))
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

// writeServiceError maps service and domain sentinels onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrScanInProgress):
		writeError(w, http.StatusConflict, "scan_in_progress", err)
	case errors.Is(err, service.ErrNoSession):
		writeError(w, http.StatusConflict, "no_session", err)
	case errors.Is(err, service.ErrUnsupportedResolution):
		writeError(w, http.StatusUnprocessableEntity, "unsupported_resolution", err)
	case errors.Is(err, service.ErrClassifierUnavailable), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "classifier_unavailable", err)
	case errors.Is(err, service.ErrInvalidScreenshot),
		errors.Is(err, layout.ErrInvalidLayout),
		errors.Is(err, layout.ErrInvalidAnchors),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, layout.ErrNotFound), errors.Is(err, ErrNoPayload):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}

// resolution reads ?resolution=WIDTHxHEIGHT.
func resolution(r *http.Request) (model.Resolution, error) {
	raw := r.URL.Query().Get("resolution")
	if raw == "" {
		return model.Resolution{}, NewKind("resolution", ErrBadRequest)
	}
	res, err := model.ParseResolution(raw)
	if err != nil {
		return model.Resolution{}, WrapKind("resolution", ErrBadRequest, err)
	}
	return res, nil
}
