package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/httputil"
	"github.com/cleanbid/backend/internal/pkg/logger"
	"github.com/cleanbid/backend/internal/service/proposal"
)

// CreateProposal checks the usage gate, then creates the proposal and bumps
// the tenant's usage counter. The gate check and the create are not atomic:
// two concurrent requests at the limit boundary can both pass.
func (h *Handlers) CreateProposal(w http.ResponseWriter, r *http.Request) {
	tenantID := TenantID(r)

	var in proposal.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	elig, err := h.Billing.CheckCanCreate(r.Context(), tenantID)
	if err != nil {
		// Fail closed: no usage answer means no new proposals.
		logger.Error("usage gate unavailable", "tenant_id", tenantID, "error", err.Error())
		httputil.Error(w, http.StatusServiceUnavailable, "usage information unavailable")
		return
	}
	if !elig.CanCreate {
		httputil.JSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":      "proposal limit reached",
			"code":       "limit_reached",
			"upgradeUrl": h.UpgradeURL,
		})
		return
	}

	p, err := h.Proposals.Create(r.Context(), tenantID, in)
	if err != nil {
		var ve *proposal.ValidationError
		if errors.As(err, &ve) {
			httputil.BadRequest(w, ve.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}

	// Usage bump is best effort once the proposal exists; a failure here
	// under-counts rather than blocking the created proposal.
	if err := h.Billing.RecordProposalCreated(r.Context(), tenantID); err != nil {
		logger.Error("usage record failed after create", "tenant_id", tenantID, "proposal_id", p.ID)
	}

	httputil.Created(w, p)
}

// ListProposals returns the tenant's proposals, paginated and optionally
// filtered by status.
func (h *Handlers) ListProposals(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, total, err := h.Proposals.List(r.Context(), TenantID(r), proposal.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if items == nil {
		items = []domain.Proposal{}
	}

	httputil.OK(w, map[string]interface{}{
		"proposals": items,
		"total":     total,
	})
}

// GetProposal returns one proposal. Foreign and missing proposals are
// indistinguishable: both 404.
func (h *Handlers) GetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.Proposals.Get(r.Context(), TenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, proposal.ErrNotFound) {
			httputil.NotFound(w, "proposal not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, p)
}

// UpdateProposalStatus transitions a proposal and appends the audit row.
func (h *Handlers) UpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}

	err := h.Proposals.UpdateStatus(r.Context(), TenantID(r), chi.URLParam(r, "id"),
		domain.ProposalStatus(body.Status), UserID(r))
	switch {
	case errors.Is(err, proposal.ErrInvalidStatus):
		httputil.BadRequest(w, "status must be one of draft, sent, accepted, rejected")
	case errors.Is(err, proposal.ErrNotFound):
		httputil.NotFound(w, "proposal not found")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, map[string]bool{"success": true})
	}
}

// GetProposalHistory returns status transitions, newest first.
func (h *Handlers) GetProposalHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.Proposals.History(r.Context(), TenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, proposal.ErrNotFound) {
			httputil.NotFound(w, "proposal not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	if hist == nil {
		hist = []domain.StatusChange{}
	}
	httputil.OK(w, map[string]interface{}{"history": hist})
}

// ShareProposal emails the proposal to its recipient and returns the share
// link.
func (h *Handlers) ShareProposal(w http.ResponseWriter, r *http.Request) {
	if h.Sharer == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "sharing is not configured")
		return
	}

	var body struct {
		RecipientEmail string `json:"recipient_email"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}

	url, err := h.Sharer.Share(r.Context(), TenantID(r), chi.URLParam(r, "id"), body.RecipientEmail)
	if err != nil {
		var ve *proposal.ValidationError
		switch {
		case errors.Is(err, proposal.ErrNotFound):
			httputil.NotFound(w, "proposal not found")
		case errors.As(err, &ve):
			httputil.BadRequest(w, ve.Error())
		default:
			httputil.InternalError(w, err)
		}
		return
	}

	httputil.OK(w, map[string]string{"shareUrl": url})
}

// DownloadProposalPDF streams the rendered PDF to the authenticated owner.
func (h *Handlers) DownloadProposalPDF(w http.ResponseWriter, r *http.Request) {
	if h.Exporter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "pdf export is not configured")
		return
	}

	pdfBytes, filename, err := h.Exporter.Export(r.Context(), TenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, proposal.ErrNotFound) {
			httputil.NotFound(w, "proposal not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	servePDF(w, pdfBytes, filename)
}

func servePDF(w http.ResponseWriter, pdfBytes []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}
