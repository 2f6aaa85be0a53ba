package api

import (
	"context"
	"net/http"

	"github.com/okian/draftlens/internal/domain/types"
)

// SessionDependencies defines the session lifecycle and selection actions.
type SessionDependencies interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	SelectMySpot(ctx context.Context, heroOrder int, dbHeroID *int) (types.Payload, error)
	SelectMyModel(ctx context.Context, heroOrder int, dbHeroID *int) (types.Payload, error)
}

// SessionHandler handles activation and selection requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type statusResponse struct {
	Status string `json:"status"`
}

// selectionRequest toggles a hero slot or model. Selecting the current one
// clears it.
type selectionRequest struct {
	HeroOrder *int `json:"heroOrder"`
	DBHeroID  *int `json:"dbHeroId"`
}

// HandleActivate handles POST /activate.
func (h *SessionHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.deps.Activate(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "active"})
}

// HandleDeactivate handles POST /deactivate.
func (h *SessionHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.deps.Deactivate(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "inactive"})
}

// HandleSelectSpot handles POST /selection/spot.
func (h *SessionHandler) HandleSelectSpot(w http.ResponseWriter, r *http.Request) {
	h.handleSelection(w, r, "api.select_spot", h.deps.SelectMySpot)
}

// HandleSelectModel handles POST /selection/model.
func (h *SessionHandler) HandleSelectModel(w http.ResponseWriter, r *http.Request) {
	h.handleSelection(w, r, "api.select_model", h.deps.SelectMyModel)
}

func (h *SessionHandler) handleSelection(w http.ResponseWriter, r *http.Request, op string,
	sel func(context.Context, int, *int) (types.Payload, error),
) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.HeroOrder == nil || *req.HeroOrder < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	p, err := sel(r.Context(), *req.HeroOrder, req.DBHeroID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
