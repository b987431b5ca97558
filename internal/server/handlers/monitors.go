package handlers

import "net/http"

// monitorsResponse names every configured probe and story, independent of
// whether either has run yet.
type monitorsResponse struct {
	Probes  []string `json:"probes"`
	Stories []string `json:"stories"`
}

// ListMonitors returns the names of every probe and story in the active
// configuration.
func (h *Handlers) ListMonitors(w http.ResponseWriter, r *http.Request) {
	cfg := h.reload.Current()

	resp := monitorsResponse{Probes: []string{}, Stories: []string{}}
	for _, p := range cfg.Probes {
		resp.Probes = append(resp.Probes, p.Name)
	}
	for _, s := range cfg.Stories {
		resp.Stories = append(resp.Stories, s.Name)
	}
	h.writeJSON(w, http.StatusOK, resp)
}
