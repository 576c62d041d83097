package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes v with the given status. By the time encoding can
// fail the status line is already on the wire, so failures only log.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

// apiError is the error envelope shared by every handler. Status is
// repeated in the body so queued or proxied responses keep their code.
type apiError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg, Status: status})
}
