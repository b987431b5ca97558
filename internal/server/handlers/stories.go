package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
)

type storySummary struct {
	Name       string `json:"name"`
	HasResult  bool   `json:"has_result"`
	OK         bool   `json:"ok,omitempty"`
	LastProbed string `json:"last_probed,omitempty"`
}

// ListStories returns every scheduled story with its last known status.
func (h *Handlers) ListStories(w http.ResponseWriter, r *http.Request) {
	var summaries []storySummary
	for key := range h.scheduler.Keys() {
		if key.Kind != types.KindStory {
			continue
		}
		summary := storySummary{Name: key.Name}
		if result, ok := h.store.Get(key); ok {
			summary.HasResult = true
			summary.OK = result.OK
			summary.LastProbed = result.Timestamp.Format(http.TimeFormat)
		}
		summaries = append(summaries, summary)
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

// GetStoryResult returns the last run result for the named story, including
// its per-step results.
func (h *Handlers) GetStoryResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := types.MonitorKey{Kind: types.KindStory, Name: name}

	result, ok := h.store.Get(key)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no result for story "+name, nil)
		return
	}
	if !showResponse(r) {
		result = result.StripResponsePreviews()
	}
	h.writeJSON(w, http.StatusOK, result)
}

// TriggerStory runs the named story immediately, bypassing its schedule, and
// returns the fresh result.
func (h *Handlers) TriggerStory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := types.MonitorKey{Kind: types.KindStory, Name: name}

	result, ok := h.scheduler.RunNow(r.Context(), key)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no such story "+name, nil)
		return
	}
	if !showResponse(r) {
		result = result.StripResponsePreviews()
	}
	h.writeJSON(w, http.StatusOK, result)
}
