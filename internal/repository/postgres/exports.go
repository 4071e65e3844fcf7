package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cleanbid/backend/internal/domain"
)

// ExportRepo implements pdf.ExportStore against PostgreSQL.
type ExportRepo struct{ db *sql.DB }

// NewExportRepo creates a Postgres-backed export log.
func NewExportRepo(db *sql.DB) *ExportRepo { return &ExportRepo{db: db} }

func (r *ExportRepo) InsertExport(ctx context.Context, e *domain.PDFExport) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pdf_exports (id, proposal_id, tenant_id, bucket, object_key, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.ProposalID, e.TenantID, e.Bucket, e.ObjectKey, e.SizeBytes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pdf export: %w", err)
	}
	return nil
}
