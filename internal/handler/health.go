package handler

import (
	"net/http"

	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/httputil"
)

type HealthHandler struct {
	phases  PhaseReporter
	clients ClientCounter
}

// NewHealthHandler accepts a nil clients.
func NewHealthHandler(phases PhaseReporter, clients ClientCounter) *HealthHandler {
	return &HealthHandler{phases: phases, clients: clients}
}

// ServeHTTP reports 503 once the orchestrator is shutting down.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	phase := h.phases.Phase()
	status := http.StatusOK
	if phase == backend.PhaseShuttingDown {
		status = http.StatusServiceUnavailable
	}
	body := map[string]any{
		"status": http.StatusText(status),
		"phase":  phase.String(),
		"hub":    h.phases.HubPhase().String(),
	}
	if h.clients != nil {
		body["streamClients"] = h.clients.TotalClients()
	}
	httputil.WriteJSON(w, status, body)
}
