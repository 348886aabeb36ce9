package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.rateLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Dashboard endpoints
		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/", s.handleListDashboards)
			r.Post("/", s.handleCreateDashboard)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Get("/", s.handleGetDashboard)
				r.Patch("/", s.handleUpdateDashboard)
				r.Delete("/", s.handleDeleteDashboard)

				// Layout editing
				r.Post("/layout", s.handleSaveLayout)
				r.Get("/available-items", s.handleAvailableItems)

				r.Route("/items", func(r chi.Router) {
					r.Post("/", s.handleAddItem)
					r.Post("/reorder", s.handleReorderItems)

					r.Route("/{itemID}", func(r chi.Router) {
						r.Get("/", s.handleGetItem)
						r.Put("/", s.handleUpdateItem)
						r.Delete("/", s.handleDeleteItem)
					})
				})

				// Device groups
				r.Route("/groups", func(r chi.Router) {
					r.Get("/", s.handleListGroups)
					r.Post("/", s.handleCreateGroup)

					r.Route("/{groupID}", func(r chi.Router) {
						r.Get("/", s.handleGetGroup)
						r.Put("/", s.handleUpdateGroup)
						r.Delete("/", s.handleDeleteGroup)
						r.Post("/devices", s.handleGroupAddDevice)
						r.Delete("/devices", s.handleGroupRemoveDevice)
						r.Put("/position", s.handleGroupPosition)
					})
				})
			})
		})

		// Raw hub device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/states", s.handleDeviceStates)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Post("/control", s.handleControlDevice)
			})
		})

		// Flow endpoints
		r.Route("/flows", func(r chi.Router) {
			r.Get("/", s.handleListFlows)
			r.Post("/{id}/trigger", s.handleTriggerFlow)
		})

		// Hub settings
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/", s.handleSaveSettings)
			r.Post("/test", s.handleTestSettings)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
