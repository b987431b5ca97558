package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

// probeSummary is the per-probe shape returned by ListProbes.
type probeSummary struct {
	Name       string `json:"name"`
	HasResult  bool   `json:"has_result"`
	OK         bool   `json:"ok,omitempty"`
	LastProbed string `json:"last_probed,omitempty"`
}

// ListProbes returns every scheduled probe with its last known status.
func (h *Handlers) ListProbes(w http.ResponseWriter, r *http.Request) {
	var summaries []probeSummary
	for key := range h.scheduler.Keys() {
		if key.Kind != types.KindProbe {
			continue
		}
		summary := probeSummary{Name: key.Name}
		if result, ok := h.store.Get(key); ok {
			summary.HasResult = true
			summary.OK = result.OK
			summary.LastProbed = result.Timestamp.Format(http.TimeFormat)
		}
		summaries = append(summaries, summary)
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

// GetProbeResult returns the last run result for the named probe.
func (h *Handlers) GetProbeResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := types.MonitorKey{Kind: types.KindProbe, Name: name}

	result, ok := h.store.Get(key)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no result for probe "+name, nil)
		return
	}
	if !showResponse(r) {
		result = result.StripResponsePreviews()
	}
	h.writeJSON(w, http.StatusOK, result)
}

// TriggerProbe runs the named probe immediately, bypassing its schedule, and
// returns the fresh result.
func (h *Handlers) TriggerProbe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := types.MonitorKey{Kind: types.KindProbe, Name: name}

	result, ok := h.scheduler.RunNow(r.Context(), key)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no such probe "+name, nil)
		return
	}
	if !showResponse(r) {
		result = result.StripResponsePreviews()
	}
	h.writeJSON(w, http.StatusOK, result)
}
