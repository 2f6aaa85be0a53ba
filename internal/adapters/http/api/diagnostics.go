package api

import (
	"context"
	"net/http"

	"github.com/okian/draftlens/internal/domain/staleness"
)

// DiagnosticsDependencies exposes operator diagnostics.
type DiagnosticsDependencies interface {
	ModelGaps(ctx context.Context) (*staleness.Report, error)
}

// DiagnosticsHandler handles diagnostics requests.
type DiagnosticsHandler struct {
	deps DiagnosticsDependencies
}

// NewDiagnosticsHandler creates a new diagnostics handler.
func NewDiagnosticsHandler(deps DiagnosticsDependencies) *DiagnosticsHandler {
	return &DiagnosticsHandler{deps: deps}
}

type modelGapsResponse struct {
	InSync bool              `json:"inSync"`
	Report *staleness.Report `json:"report"`
}

// HandleModelGaps handles GET /diagnostics/model-gaps.
func (h *DiagnosticsHandler) HandleModelGaps(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	report, err := h.deps.ModelGaps(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modelGapsResponse{InSync: report == nil, Report: report})
}
