package handler

import (
	"net/http"

	"lodestar/internal/httputil"
)

// HealthCheck responds to load balancer probes
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
