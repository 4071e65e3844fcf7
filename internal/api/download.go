package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleanbid/backend/internal/engagement"
	"github.com/cleanbid/backend/internal/pkg/httputil"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// HandlePublicDownload serves the PDF behind a tracking token. The link is
// HMAC-signed because it streams the document itself, unlike the other
// beacons which only write counters.
func (h *Handlers) HandlePublicDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if h.Links == nil || !h.Links.Verify(token, r.URL.Query().Get("sig")) {
		httputil.NotFound(w, "not found")
		return
	}

	tr, err := h.Engagement.ResolveToken(r.Context(), token)
	if err != nil {
		httputil.NotFound(w, "not found")
		return
	}

	p, err := h.Finder.GetByID(r.Context(), tr.ProposalID)
	if err != nil {
		httputil.NotFound(w, "not found")
		return
	}

	pdfBytes, filename, err := h.Exporter.Export(r.Context(), p.TenantID, p.ID)
	if err != nil {
		if errors.Is(err, engagement.ErrNotFound) {
			httputil.NotFound(w, "not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	// Record the download after the export succeeds. Telemetry failures
	// never block the document.
	if err := h.Engagement.RecordDownload(r.Context(), token, engagement.CallerFrom(r)); err != nil {
		logger.Error("download beacon failed", "token", token, "error", err.Error())
	}

	logger.Info("public pdf download", "proposal_id", p.ID, "token", token)
	servePDF(w, pdfBytes, filename)
}
