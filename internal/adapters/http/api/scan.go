package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/draftlens/internal/domain/types"
)

const maxScreenshotBytes = 32 << 20

// ScanDependencies defines what the scan handler needs.
type ScanDependencies interface {
	Scan(ctx context.Context, initial bool, screenshot []byte) (types.Payload, error)
	Payload() (types.Payload, bool)
}

// ScanHandler handles scan requests.
type ScanHandler struct {
	deps ScanDependencies
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(deps ScanDependencies) *ScanHandler {
	return &ScanHandler{deps: deps}
}

// HandleScan handles POST /scan?initial=bool. The body is the screenshot
// (PNG, JPEG or BMP); an empty body scans the latest capture.
func (h *ScanHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.scan"
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	initial := false
	if v := r.URL.Query().Get("initial"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		initial = b
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScreenshotBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var screenshot []byte
	if len(body) > 0 {
		screenshot = body
	}

	p, err := h.deps.Scan(r.Context(), initial, screenshot)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePayload handles GET /payload, the most recent scan result.
func (h *ScanHandler) HandlePayload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := h.deps.Payload()
	if !ok {
		writeServiceError(w, NewKind("api.payload", ErrNoPayload))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
