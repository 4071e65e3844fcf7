package api

import (
	"net/http"
	"time"

	"github.com/cleanbid/backend/internal/pkg/httputil"
)

// HealthCheck reports liveness. It does not touch the database; a degraded
// usage gate is visible via /api/usage instead.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":    "healthy",
		"service":   "cleanbid-server",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
