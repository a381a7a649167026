package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/audiogram/internal/domain/model"
)

const defaultMaxBodyBytes = 64 << 10

// cell accepts a JSON number, string or null and keeps it as form text.
type cell string

func (c *cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = cell(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("threshold must be a number, string or null: %w", err)
		}
		*c = cell(n.String())
	}
	return nil
}

type earCells struct {
	RE []cell `json:"re"`
	LE []cell `json:"le"`
}

func (e earCells) rows() (model.ManualRows, error) {
	if len(e.RE) > model.NumFrequencies || len(e.LE) > model.NumFrequencies {
		return model.ManualRows{}, ErrTooManyCells
	}
	var rows model.ManualRows
	for i, c := range e.RE {
		rows.RE[i] = string(c)
	}
	for i, c := range e.LE {
		rows.LE[i] = string(c)
	}
	return rows, nil
}

// audiogramRequest mirrors the OpenAPI schema for POST /api/audiograms.
type audiogramRequest struct {
	ParticipantID cell      `json:"participant_id"`
	Air           earCells  `json:"air"`
	Bone          *earCells `json:"bone"`
	AirOnly       bool      `json:"air_only"`
}

func (req audiogramRequest) entry() (model.ManualEntry, error) {
	air, err := req.Air.rows()
	if err != nil {
		return model.ManualEntry{}, err
	}
	entry := model.ManualEntry{ParticipantID: string(req.ParticipantID), Air: air}
	if req.Bone != nil && !req.AirOnly {
		bone, err := req.Bone.rows()
		if err != nil {
			return model.ManualEntry{}, err
		}
		entry.Bone = &bone
	}
	return entry, nil
}

// AudiogramHandler analyzes manual entries.
type AudiogramHandler struct {
	deps         AudiogramDependencies
	maxBodyBytes int64
}

// NewAudiogramHandler creates a new audiogram handler.
func NewAudiogramHandler(deps AudiogramDependencies, maxBodyBytes int64) *AudiogramHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &AudiogramHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostAudiogram handles POST /api/audiograms.
func (h *AudiogramHandler) HandlePostAudiogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req audiogramRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	entry, err := req.entry()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.AnalyzeManual(r.Context(), entry))
}
