package handlers

import "net/http"

// Health reports that the process is up. It never depends on downstream
// probe/story results, so a monitored target being down never takes the
// control plane's own health check down with it.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
