package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/rankteam/pkg/metrics"
)

// HealthHandler serves the metrics registry and a JSON liveness probe.
type HealthHandler struct {
	stats   StatsProvider
	metrics http.Handler
}

// NewHealthHandler creates a health handler reporting on stats.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{
		stats:   stats,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz. Clients that accept application/json
// get {"status":"ok"} or a 503 while the service is stopped; everyone else
// gets the Prometheus exposition.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Accept"), "application/json") {
		h.metrics.ServeHTTP(w, r)
		return
	}
	if started, _ := h.stats.GetStats()["started"].(bool); !started {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "stopped"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
