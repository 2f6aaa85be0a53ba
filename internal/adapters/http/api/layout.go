package api

import (
	"context"
	"net/http"

	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
)

// LayoutDependencies defines the layout operations.
type LayoutDependencies interface {
	Layout(ctx context.Context, res model.Resolution) (layout.Layout, layout.Source, float64, error)
	SaveCustomLayout(ctx context.Context, res model.Resolution, l layout.Layout) ([]layout.Violation, error)
	DeleteCustomLayout(ctx context.Context, res model.Resolution) error
	CustomLayouts(ctx context.Context) ([]string, error)
	CalibrateLayout(ctx context.Context, res model.Resolution, anchors []layout.Anchor) (layout.Layout, []layout.Violation, error)
}

// LayoutHandler handles layout requests.
type LayoutHandler struct {
	deps LayoutDependencies
}

// NewLayoutHandler creates a new layout handler.
func NewLayoutHandler(deps LayoutDependencies) *LayoutHandler {
	return &LayoutHandler{deps: deps}
}

type layoutResponse struct {
	Resolution  string        `json:"resolution"`
	Source      layout.Source `json:"source"`
	ScaleFactor float64       `json:"scaleFactor"`
	Layout      layout.Layout `json:"layout"`
}

type violationsResponse struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Violations []layout.Violation `json:"violations"`
}

type calibrateRequest struct {
	Anchors []layout.Anchor `json:"anchors"`
}

// HandleGetLayout handles GET /layout?resolution=WxH.
func (h *LayoutHandler) HandleGetLayout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	res, err := resolution(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	l, src, scale, err := h.deps.Layout(r.Context(), res)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Resolution: res.String(), Source: src, ScaleFactor: scale, Layout: l})
}

// HandleCustomLayout handles GET /layout/custom and PUT, DELETE
// /layout/custom?resolution=WxH.
func (h *LayoutHandler) HandleCustomLayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.custom_layout"
	if !requireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}
	if r.Method == http.MethodGet {
		keys, err := h.deps.CustomLayouts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"resolutions": keys})
		return
	}
	res, err := resolution(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.Method == http.MethodDelete {
		if err := h.deps.DeleteCustomLayout(r.Context(), res); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var l layout.Layout
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	violations, err := h.deps.SaveCustomLayout(r.Context(), res, l)
	if len(violations) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, violationsResponse{
			Code: "out_of_bounds", Message: "layout rectangles outside the screen", Violations: violations,
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Resolution: res.String(), Source: layout.SourceCustom, Layout: l.Normalize()})
}

// HandleCalibrate handles POST /layout/calibrate?resolution=WxH. Bounds
// failures come back as a violation list; the layout is not saved.
func (h *LayoutHandler) HandleCalibrate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calibrate"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	res, err := resolution(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	l, violations, err := h.deps.CalibrateLayout(r.Context(), res, req.Anchors)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(violations) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, violationsResponse{
			Code: "out_of_bounds", Message: "calibrated layout leaves the screen", Violations: violations,
		})
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Resolution: res.String(), Source: layout.SourceCustom, Layout: l})
}
