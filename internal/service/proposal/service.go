package proposal

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// Service implements proposal business logic. It owns payload validation
// and the status machine; quota enforcement belongs to the billing package
// and must be sequenced by the caller before Create.
type Service struct {
	repo Repository
}

// NewService creates a proposal service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields for creating a new proposal.
type CreateInput struct {
	Title         string          `json:"title"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email"`
	ClientPhone   string          `json:"client_phone"`
	ClientCompany string          `json:"client_company"`
	ServiceType   string          `json:"service_type"`
	Frequency     string          `json:"frequency"`
	FacilitySqFt  int             `json:"facility_sq_ft"`
	MonthlyPrice  float64         `json:"monthly_price"`
	ServiceData   json.RawMessage `json:"service_data"`
}

func (in CreateInput) validate() error {
	switch {
	case in.Title == "":
		return &ValidationError{Field: "title", Reason: "required"}
	case in.ClientName == "":
		return &ValidationError{Field: "client_name", Reason: "required"}
	case in.ClientEmail == "":
		return &ValidationError{Field: "client_email", Reason: "required"}
	case in.ServiceType == "":
		return &ValidationError{Field: "service_type", Reason: "required"}
	case in.Frequency == "":
		return &ValidationError{Field: "frequency", Reason: "required"}
	case in.FacilitySqFt < 0:
		return &ValidationError{Field: "facility_sq_ft", Reason: "must be non-negative"}
	case in.MonthlyPrice < 0:
		return &ValidationError{Field: "monthly_price", Reason: "must be non-negative"}
	}
	if len(in.ServiceData) > 0 && !json.Valid(in.ServiceData) {
		return &ValidationError{Field: "service_data", Reason: "must be valid JSON"}
	}
	return nil
}

// Get returns a single tenant-scoped proposal.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Proposal, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// List returns proposals matching the filter.
func (s *Service) List(ctx context.Context, tenantID string, f ListFilter) ([]domain.Proposal, int, error) {
	return s.repo.List(ctx, tenantID, f)
}

// Create validates and persists a new proposal in draft status with zeroed
// counters. Callers must have passed the usage gate first; this service does
// not consult it (separation of concerns).
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*domain.Proposal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &domain.Proposal{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		Title:         in.Title,
		ClientName:    in.ClientName,
		ClientEmail:   in.ClientEmail,
		ClientPhone:   in.ClientPhone,
		ClientCompany: in.ClientCompany,
		ServiceType:   in.ServiceType,
		Frequency:     in.Frequency,
		FacilitySqFt:  in.FacilitySqFt,
		MonthlyPrice:  in.MonthlyPrice,
		ServiceData:   in.ServiceData,
		Status:        domain.ProposalDraft,
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id

	logger.Info("proposal created",
		"proposal_id", p.ID,
		"tenant_id", tenantID,
		"client_email", p.ClientEmail)
	return p, nil
}

// UpdateStatus transitions a proposal to the given status and appends the
// audit row atomically. Only the status value itself is validated; any
// transition between valid statuses is allowed, including draft straight
// to accepted.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ProposalStatus, actorID string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, tenantID, id, status, actorID)
}

// History returns the proposal's status transitions, newest first.
func (s *Service) History(ctx context.Context, tenantID, id string) ([]domain.StatusChange, error) {
	return s.repo.History(ctx, tenantID, id)
}

// RecordDownload bumps the proposal's denormalized download counter.
// Best-effort telemetry; failures are logged, not returned.
func (s *Service) RecordDownload(ctx context.Context, id string) {
	if err := s.repo.IncrementDownloadCount(ctx, id); err != nil {
		logger.Warn("download count increment failed", "proposal_id", id, "error", err.Error())
	}
}
