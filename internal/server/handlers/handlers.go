// Package handlers implements the HTTP request handlers for the XBP
// Monitoring control-plane API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dwsmith1983/xbp-monitoring/internal/reload"
	"github.com/dwsmith1983/xbp-monitoring/internal/scheduler"
	"github.com/dwsmith1983/xbp-monitoring/internal/store"
)

// Handlers holds every dependency the control-plane routes need.
type Handlers struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	reload    *reload.Coordinator
	logger    *slog.Logger
}

// New creates a Handlers instance.
func New(st *store.Store, sched *scheduler.Scheduler, coord *reload.Coordinator, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: st, scheduler: sched, reload: coord, logger: logger}
}

// writeJSON encodes v as the response body, logging (but not exposing) any
// encoding failure.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}

// writeError logs the internal error and returns a sanitized JSON error to
// the client, matching the {"error": "..."} shape used throughout the API.
func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err, "status", status)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// showResponse parses the show_response query parameter, defaulting to true
// so a client sees full response previews unless it opts out.
func showResponse(r *http.Request) bool {
	v := r.URL.Query().Get("show_response")
	return v != "false" && v != "0"
}
