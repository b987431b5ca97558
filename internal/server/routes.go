package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/xbp-monitoring/internal/server/handlers"
)

func (s *Server) registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Get("/", h.Health)

	r.Route("/probes", func(r chi.Router) {
		r.Get("/", h.ListProbes)
		r.Get("/{name}/results", h.GetProbeResult)
		r.Post("/{name}/trigger", h.TriggerProbe)
	})

	r.Route("/stories", func(r chi.Router) {
		r.Get("/", h.ListStories)
		r.Get("/{name}/results", h.GetStoryResult)
		r.Post("/{name}/trigger", h.TriggerStory)
	})

	r.Route("/-", func(r chi.Router) {
		r.Get("/monitors", h.ListMonitors)
		r.Post("/reload", h.Reload)
	})
}
