package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/audiogram/internal/adapters/source"
)

// ParticipantHandler serves dataset record analyses.
type ParticipantHandler struct {
	deps ParticipantDependencies
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(deps ParticipantDependencies) *ParticipantHandler {
	return &ParticipantHandler{deps: deps}
}

// HandleParticipant handles GET /api/participants/{random|first|id}.
func (h *ParticipantHandler) HandleParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/participants/")
	if path == "" {
		h.HandleByIndex(w, r)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	ctx := r.Context()
	switch path {
	case "random":
		a, err := h.deps.Random(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "first":
		a, err := h.deps.First(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	default:
		id, ok := source.ParseIdentifier(path)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %q", ErrInvalidID, path))
			return
		}
		a, err := h.deps.ByID(ctx, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// HandleByIndex handles GET /api/participants?index=N.
func (h *ParticipantHandler) HandleByIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	raw := r.URL.Query().Get("index")
	if raw == "" {
		raw = "0"
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %q", ErrInvalidIndex, raw))
		return
	}
	a, err := h.deps.At(r.Context(), i)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
