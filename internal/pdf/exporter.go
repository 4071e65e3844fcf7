package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// ProposalGetter resolves a tenant-scoped proposal.
type ProposalGetter interface {
	Get(ctx context.Context, tenantID, id string) (*domain.Proposal, error)
}

// ExportStore records completed exports.
type ExportStore interface {
	InsertExport(ctx context.Context, e *domain.PDFExport) error
}

// Exporter runs the full export pipeline for one proposal.
type Exporter struct {
	proposals ProposalGetter
	templates *TemplateEngine
	renderer  Renderer
	archive   Archive
	exports   ExportStore
}

// NewExporter creates an exporter. archive and exports may be nil; exports
// are then served without an archive copy.
func NewExporter(proposals ProposalGetter, templates *TemplateEngine, renderer Renderer, archive Archive, exports ExportStore) *Exporter {
	return &Exporter{
		proposals: proposals,
		templates: templates,
		renderer:  renderer,
		archive:   archive,
		exports:   exports,
	}
}

// Export renders the proposal to PDF and returns the bytes plus a download
// filename. The S3 archive copy and the pdf_exports row are best effort: a
// failure there is logged and the recipient still gets the document.
func (e *Exporter) Export(ctx context.Context, tenantID, proposalID string) ([]byte, string, error) {
	p, err := e.proposals.Get(ctx, tenantID, proposalID)
	if err != nil {
		return nil, "", err
	}

	html, err := e.templates.Render("proposal-document", ProposalDocumentTemplate, ProposalBindings(p))
	if err != nil {
		return nil, "", fmt.Errorf("render proposal html: %w", err)
	}

	pdfBytes, err := e.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, "", fmt.Errorf("render proposal pdf: %w", err)
	}

	e.archiveCopy(ctx, p, pdfBytes)

	filename := fmt.Sprintf("proposal-%s.pdf", p.ID)
	return pdfBytes, filename, nil
}

func (e *Exporter) archiveCopy(ctx context.Context, p *domain.Proposal, pdfBytes []byte) {
	if e.archive == nil {
		return
	}

	key := fmt.Sprintf("proposals/%s/%s/%d.pdf", p.TenantID, p.ID, time.Now().Unix())
	if err := e.archive.Put(ctx, key, pdfBytes); err != nil {
		logger.Error("pdf archive failed", "proposal_id", p.ID, "error", err.Error())
		return
	}

	if e.exports == nil {
		return
	}
	rec := &domain.PDFExport{
		ID:         uuid.New().String(),
		ProposalID: p.ID,
		TenantID:   p.TenantID,
		Bucket:     e.archive.Bucket(),
		ObjectKey:  key,
		SizeBytes:  int64(len(pdfBytes)),
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.exports.InsertExport(ctx, rec); err != nil {
		logger.Error("pdf export record failed", "proposal_id", p.ID, "error", err.Error())
	}
}
