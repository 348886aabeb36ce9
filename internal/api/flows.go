package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListFlows returns every flow the hub knows about, reporting an
// unconfigured hub explicitly like the device listing.
func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hub := s.hubClient(ctx)
	if !hub.Configured() {
		writeHubNotConfigured(w)
		return
	}

	writeJSON(w, http.StatusOK, hub.Flows(ctx))
}

// handleTriggerFlow starts a flow on the hub. Failure to trigger is
// reported as success=false, never a 5xx.
func (s *Server) handleTriggerFlow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	success := s.hubClient(ctx).TriggerFlow(ctx, id)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": success,
		"flow_id": id,
	})
}
