package prompt

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quiplash-live/quiplash-service/pkg/http/respond"
)

// HTTPHandlers provides the /prompt and /utils/get REST endpoints.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// Create handles POST /prompt/create
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid JSON")
		return
	}

	status, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("prompt creation failed")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, status)
}

// Moderate handles POST /prompt/moderate
func (h *HTTPHandlers) Moderate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid JSON")
		return
	}

	entries, err := h.svc.Moderate(r.Context(), req.PromptIDs)
	if err != nil {
		h.logger.Error().Err(err).Msg("prompt moderation failed")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, entries)
}

// Delete handles POST /prompt/delete
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid JSON")
		return
	}

	deleted, err := h.svc.DeleteByOwner(r.Context(), req.Player)
	if err != nil {
		h.logger.Error().Err(err).Msg("prompt deletion failed")
		respond.InternalError(w)
		return
	}
	respond.OK(w, fmt.Sprintf("%d prompts deleted", deleted))
}

// Fetch handles POST /utils/get. Lists may arrive in the JSON body or as
// comma-separated `players` / `tag_list` query parameters.
func (h *HTTPHandlers) Fetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.MethodNotAllowed(w)
		return
	}

	var req FetchRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Players == nil {
		req.Players = splitParam(r.URL.Query().Get("players"))
	}
	if req.TagList == nil {
		req.TagList = splitParam(r.URL.Query().Get("tag_list"))
	}

	prompts, err := h.svc.FetchByTags(r.Context(), req.Players, req.TagList)
	if err != nil {
		h.logger.Error().Err(err).Msg("prompt fetch failed")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, prompts)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
