package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"NewsBrief/internal/domain"
)

const maxBodyBytes = 1 << 20

type voiceTypeBody struct {
	VoiceType string `json:"voice_type"`
}

func (h *handler) preferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.users.Preferences(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (h *handler) voiceType(w http.ResponseWriter, r *http.Request) {
	voice, err := h.users.VoiceType(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, voiceTypeBody{VoiceType: voice})
}

func (h *handler) setVoiceType(w http.ResponseWriter, r *http.Request) {
	var body voiceTypeBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	voice, err := h.users.SetVoiceType(r.Context(), userID(r), body.VoiceType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, voiceTypeBody{VoiceType: voice})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.users.History(r.Context(), userID(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"histories": entries})
}

// decodeJSON reads a bounded JSON body into v. Malformed bodies are
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", domain.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	return nil
}
