package handler

import "github.com/go-chi/chi/v5"

// Handlers groups the time-accounting handlers for routing.
type Handlers struct {
	Entries    *EntryHandler
	Recovery   *RecoveryHandler
	Statistics *StatisticsHandler
	Dashboard  *DashboardHandler
}

// Routes mounts the API on r. Authentication is the caller's concern.
func (h Handlers) Routes(r chi.Router) {
	r.Post("/punch", h.Entries.Punch)
	r.Get("/punch/token", h.Entries.IssuePunchToken)
	r.Get("/statistics", h.Statistics.Mine)

	r.Route("/employees/{id}", func(r chi.Router) {
		r.Get("/statistics", h.Statistics.ForEmployee)
		r.Get("/time-entries", h.Entries.ForEmployee)
	})

	r.Route("/time-entries", func(r chi.Router) {
		r.Post("/", h.Entries.Create)
		r.Get("/today", h.Entries.Today)
		r.Get("/recent", h.Entries.Recent)
		r.Post("/approve-all", h.Entries.ApproveAll)
		r.Post("/clear", h.Recovery.Clear)
		r.Post("/undo-clear", h.Recovery.Undo)
		r.Patch("/{id}", h.Entries.Update)
		r.Delete("/{id}", h.Entries.Delete)
		r.Post("/{id}/status", h.Entries.UpdateStatus)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/stats", h.Dashboard.Stats)
		r.Get("/active-employees", h.Dashboard.ActiveEmployees)
	})
}
