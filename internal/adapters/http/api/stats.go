package api

import (
	"net/http"

	"github.com/okian/draftlens/internal/domain/engine"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// SettingsProvider exposes the active engine thresholds.
type SettingsProvider interface {
	Settings() engine.Settings
}

// StatsHandler handles stats and settings requests.
type StatsHandler struct {
	stats    StatsProvider
	settings SettingsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps interface {
	StatsProvider
	SettingsProvider
}) *StatsHandler {
	return &StatsHandler{stats: deps, settings: deps}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}

type settingsResponse struct {
	OPThreshold   float64 `json:"opThreshold"`
	TrapThreshold float64 `json:"trapThreshold"`
	Language      string  `json:"language"`
}

// HandleSettings handles GET /settings requests.
func (h *StatsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s := h.settings.Settings()
	writeJSON(w, http.StatusOK, settingsResponse{OPThreshold: s.OPThreshold, TrapThreshold: s.TrapThreshold, Language: s.Language})
}
