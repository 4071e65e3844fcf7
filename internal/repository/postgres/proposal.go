package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/service/proposal"
)

// ProposalRepo implements proposal.Repository against PostgreSQL.
type ProposalRepo struct{ db *sql.DB }

// NewProposalRepo creates a Postgres-backed proposal repository.
func NewProposalRepo(db *sql.DB) *ProposalRepo { return &ProposalRepo{db: db} }

func (r *ProposalRepo) Get(ctx context.Context, tenantID, id string) (*domain.Proposal, error) {
	p := &domain.Proposal{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, title, client_name, client_email,
		       COALESCE(client_phone,''), COALESCE(client_company,''),
		       service_type, frequency, facility_sq_ft, monthly_price,
		       COALESCE(service_data,'{}'), status, view_count, download_count,
		       created_at, updated_at
		FROM proposals
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(
		&p.ID, &p.TenantID, &p.Title, &p.ClientName, &p.ClientEmail,
		&p.ClientPhone, &p.ClientCompany,
		&p.ServiceType, &p.Frequency, &p.FacilitySqFt, &p.MonthlyPrice,
		&p.ServiceData, &p.Status, &p.ViewCount, &p.DownloadCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, proposal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

// GetByID loads a proposal without tenant scoping. Only the public
// token-authorized download path uses it; session-scoped reads go through
// Get.
func (r *ProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	var tenantID string
	err := r.db.QueryRowContext(ctx, `
		SELECT tenant_id FROM proposals WHERE id = $1
	`, id).Scan(&tenantID)
	if err == sql.ErrNoRows {
		return nil, proposal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve proposal tenant: %w", err)
	}
	return r.Get(ctx, tenantID, id)
}

func (r *ProposalRepo) List(ctx context.Context, tenantID string, f proposal.ListFilter) ([]domain.Proposal, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM proposals WHERE tenant_id = $1`
	countArgs := []interface{}{tenantID}
	if f.Status != "" {
		countQ += " AND status = $2"
		countArgs = append(countArgs, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}

	q := `
		SELECT id, title, client_name, client_email, service_type, frequency,
		       facility_sq_ft, monthly_price, status, view_count, download_count,
		       created_at, updated_at
		FROM proposals
		WHERE tenant_id = $1`

	args := []interface{}{tenantID}
	idx := 2
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []domain.Proposal
	for rows.Next() {
		var p domain.Proposal
		if err := rows.Scan(
			&p.ID, &p.Title, &p.ClientName, &p.ClientEmail, &p.ServiceType, &p.Frequency,
			&p.FacilitySqFt, &p.MonthlyPrice, &p.Status, &p.ViewCount, &p.DownloadCount,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan proposal: %w", err)
		}
		p.TenantID = tenantID
		out = append(out, p)
	}
	return out, total, nil
}

func (r *ProposalRepo) Create(ctx context.Context, p *domain.Proposal) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	serviceData := p.ServiceData
	if len(serviceData) == 0 {
		serviceData = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proposals
			(id, tenant_id, title, client_name, client_email, client_phone,
			 client_company, service_type, frequency, facility_sq_ft,
			 monthly_price, service_data, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`, p.ID, p.TenantID, p.Title, p.ClientName, p.ClientEmail, p.ClientPhone,
		p.ClientCompany, p.ServiceType, p.Frequency, p.FacilitySqFt,
		p.MonthlyPrice, []byte(serviceData), p.Status)
	if err != nil {
		return "", fmt.Errorf("create proposal: %w", err)
	}
	return p.ID, nil
}

// UpdateStatus writes the status change and its history row in one
// transaction so the audit trail can never drift from the proposal.
func (r *ProposalRepo) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ProposalStatus, actorID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback()

	var prev domain.ProposalStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM proposals
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, id, tenantID).Scan(&prev)
	if err == sql.ErrNoRows {
		return proposal.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock proposal: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE proposals SET status = $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3
	`, status, id, tenantID); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO proposal_status_history
			(id, proposal_id, prev_status, new_status, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New().String(), id, prev, status, actorID); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

func (r *ProposalRepo) History(ctx context.Context, tenantID, id string) ([]domain.StatusChange, error) {
	// Ownership check first so a foreign proposal 404s instead of
	// returning an empty history.
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT true FROM proposals WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, proposal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check proposal: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, proposal_id, prev_status, new_status, COALESCE(actor_id,''), created_at
		FROM proposal_status_history
		WHERE proposal_id = $1
		ORDER BY created_at DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var sc domain.StatusChange
		if err := rows.Scan(&sc.ID, &sc.ProposalID, &sc.PrevStatus, &sc.NewStatus, &sc.ActorID, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		out = append(out, sc)
	}
	return out, nil
}

func (r *ProposalRepo) IncrementDownloadCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposals SET download_count = download_count + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}
