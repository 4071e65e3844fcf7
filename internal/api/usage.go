package api

import (
	"net/http"

	"github.com/cleanbid/backend/internal/pkg/httputil"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// GetUsage reports the tenant's quota standing. The response carries the
// same eligibility fields the creation gate evaluates, so the frontend can
// disable its "New proposal" button ahead of a 402.
func (h *Handlers) GetUsage(w http.ResponseWriter, r *http.Request) {
	elig, err := h.Billing.CheckCanCreate(r.Context(), TenantID(r))
	if err != nil {
		logger.Error("usage check failed", "tenant_id", TenantID(r), "error", err.Error())
		httputil.Error(w, http.StatusServiceUnavailable, "usage information unavailable")
		return
	}
	httputil.OK(w, elig)
}
