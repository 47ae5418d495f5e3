package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/geelink/docingest/internal/ingesterr"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// statusForError maps the ingesterr taxonomy to HTTP status codes per
// spec.md §7: InvalidInput->400, UpstreamUnavailable->500,
// NotConfigured->400 (caller asked for something unavailable) or 500
// (service itself missing configuration - both cases a caller can't
// distinguish without inspecting the message, so this picks 400 as the
// common case: a request-scoped choice like a provider name).
func statusForError(err error) int {
	var invalidInput *ingesterr.InvalidInput
	var upstream *ingesterr.UpstreamUnavailable
	var notConfigured *ingesterr.NotConfigured
	var contract *ingesterr.ProcessorContract

	switch {
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return http.StatusInternalServerError
	case errors.As(err, &notConfigured):
		return http.StatusBadRequest
	case errors.As(err, &contract):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
