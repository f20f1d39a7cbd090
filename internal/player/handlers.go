package player

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/pkg/http/respond"
)

// HTTPHandlers provides the /player REST endpoints.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// Register handles POST /player/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid JSON")
		return
	}

	status, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("player registration failed")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, status)
}

// Login handles POST /player/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid JSON")
		return
	}

	status, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("player login failed")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, status)
}

// Update handles POST /player/update
func (h *HTTPHandlers) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid JSON")
		return
	}
	if req.Username == "" {
		respond.BadRequest(w, "Missing fields")
		return
	}

	status, err := h.svc.Update(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("player update failed")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, status)
}
