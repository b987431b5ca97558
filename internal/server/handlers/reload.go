package handlers

import (
	"net/http"

	"github.com/dwsmith1983/xbp-monitoring/internal/reload"
)

const reloadTokenHeader = "x-xbp-reload-token"

// reloadResponse reports what a successful reload picked up.
type reloadResponse struct {
	Reloaded bool `json:"reloaded"`
	Probes   int  `json:"probes"`
	Stories  int  `json:"stories"`
}

// Reload validates the x-xbp-reload-token header against XBP_RELOAD_TOKEN
// and, on a match, loads and swaps in a fresh configuration. An invalid or
// missing token returns 401 Unauthorized.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	if !reload.TokenValid(r.Header.Get(reloadTokenHeader)) {
		h.writeError(w, http.StatusUnauthorized, "invalid or missing reload token", nil)
		return
	}

	cfg, err := h.reload.Reload(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reload failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, reloadResponse{
		Reloaded: true,
		Probes:   len(cfg.Probes),
		Stories:  len(cfg.Stories),
	})
}
