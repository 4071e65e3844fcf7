package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/service/proposal"
)

func newMockDB(t *testing.T) (*ProposalRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewProposalRepo(db), mock
}

func TestProposalGet(t *testing.T) {
	repo, mock := newMockDB(t)

	now := time.Now()
	mock.ExpectQuery("SELECT id, tenant_id, title").
		WithArgs("prop-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "title", "client_name", "client_email",
			"client_phone", "client_company", "service_type", "frequency",
			"facility_sq_ft", "monthly_price", "service_data", "status",
			"view_count", "download_count", "created_at", "updated_at",
		}).AddRow(
			"prop-1", "tenant-1", "Office Cleaning", "Acme", "ops@acme.com",
			"", "Acme Corp", "commercial", "weekly",
			12000, 2400.0, []byte(`{}`), "draft",
			0, 0, now, now,
		))

	p, err := repo.Get(context.Background(), "tenant-1", "prop-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Title != "Office Cleaning" || p.Status != domain.ProposalDraft {
		t.Errorf("unexpected proposal: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestProposalGetNotFound(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id, tenant_id, title").
		WithArgs("prop-1", "other-tenant").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "other-tenant", "prop-1")
	if !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProposalUpdateStatusTransactional(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM proposals").
		WithArgs("prop-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectExec("UPDATE proposals SET status").
		WithArgs("sent", "prop-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO proposal_status_history").
		WithArgs(sqlmock.AnyArg(), "prop-1", "draft", "sent", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "tenant-1", "prop-1", domain.ProposalSent, "user-1")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestProposalUpdateStatusNotOwnedRollsBack(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM proposals").
		WithArgs("prop-1", "other-tenant").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), "other-tenant", "prop-1", domain.ProposalSent, "user-1")
	if !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestProposalUpdateStatusHistoryFailureRollsBack(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM proposals").
		WithArgs("prop-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectExec("UPDATE proposals SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO proposal_status_history").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), "tenant-1", "prop-1", domain.ProposalSent, "user-1")
	if err == nil {
		t.Fatal("expected error when history insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestProposalHistoryNotOwned(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery("SELECT true FROM proposals").
		WithArgs("prop-1", "other-tenant").
		WillReturnRows(sqlmock.NewRows([]string{"true"}))

	_, err := repo.History(context.Background(), "other-tenant", "prop-1")
	if !errors.Is(err, proposal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProposalHistoryNewestFirst(t *testing.T) {
	repo, mock := newMockDB(t)

	now := time.Now()
	mock.ExpectQuery("SELECT true FROM proposals").
		WithArgs("prop-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"true"}).AddRow(true))
	mock.ExpectQuery("SELECT id, proposal_id, prev_status, new_status").
		WithArgs("prop-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "proposal_id", "prev_status", "new_status", "actor_id", "created_at"}).
			AddRow("h2", "prop-1", "sent", "accepted", "user-1", now).
			AddRow("h1", "prop-1", "draft", "sent", "user-1", now.Add(-time.Hour)))

	hist, err := repo.History(context.Background(), "tenant-1", "prop-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].NewStatus != domain.ProposalAccepted {
		t.Errorf("unexpected history order: %+v", hist)
	}
}

func TestProposalCreateAssignsID(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO proposals").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), &domain.Proposal{
		TenantID: "tenant-1", Title: "Office Cleaning", Status: domain.ProposalDraft,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Error("expected generated id")
	}
}
