package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/engagement"
)

// TrackingRepo implements engagement.Store against PostgreSQL.
//
// Aggregate updates are single statements: counters use `n = n + 1`, first
// timestamps use COALESCE so they are written once, and scroll depth uses
// GREATEST so it never decreases under concurrent beacons.
type TrackingRepo struct{ db *sql.DB }

// NewTrackingRepo creates a Postgres-backed engagement store.
func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{db: db} }

func (r *TrackingRepo) GetByToken(ctx context.Context, token string) (*domain.Tracking, error) {
	t := &domain.Tracking{}
	err := r.db.QueryRowContext(ctx, `
		SELECT token, proposal_id, opened, opened_at,
		       viewed, first_view_at, last_viewed_at, view_count,
		       downloaded, downloaded_at, download_count,
		       max_scroll_depth, time_spent_seconds,
		       COALESCE(user_agent,''), COALESCE(ip_address,''),
		       created_at, updated_at
		FROM proposal_tracking
		WHERE token = $1
	`, token).Scan(
		&t.Token, &t.ProposalID, &t.Opened, &t.OpenedAt,
		&t.Viewed, &t.FirstViewAt, &t.LastViewedAt, &t.ViewCount,
		&t.Downloaded, &t.DownloadedAt, &t.DownloadCount,
		&t.MaxScrollDepth, &t.TimeSpentSeconds,
		&t.UserAgent, &t.IPAddress,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, engagement.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tracking row: %w", err)
	}
	return t, nil
}

func (r *TrackingRepo) CreateToken(ctx context.Context, t *domain.Tracking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proposal_tracking (token, proposal_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`, t.Token, t.ProposalID)
	if err != nil {
		return fmt.Errorf("create tracking token: %w", err)
	}
	return nil
}

func (r *TrackingRepo) MarkOpened(ctx context.Context, token string, at time.Time, c domain.Caller) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposal_tracking
		SET opened = true,
		    opened_at = COALESCE(opened_at, $2),
		    user_agent = $3, ip_address = $4, updated_at = NOW()
		WHERE token = $1
	`, token, at, c.UserAgent, c.IPAddress)
	if err != nil {
		return fmt.Errorf("mark opened: %w", err)
	}
	return nil
}

func (r *TrackingRepo) IncrementView(ctx context.Context, token string, at time.Time, c domain.Caller) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposal_tracking
		SET viewed = true,
		    view_count = view_count + 1,
		    first_view_at = COALESCE(first_view_at, $2),
		    last_viewed_at = $2,
		    user_agent = $3, ip_address = $4, updated_at = NOW()
		WHERE token = $1
	`, token, at, c.UserAgent, c.IPAddress)
	if err != nil {
		return fmt.Errorf("increment view: %w", err)
	}
	return nil
}

func (r *TrackingRepo) IncrementDownload(ctx context.Context, token string, at time.Time, c domain.Caller) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposal_tracking
		SET downloaded = true,
		    download_count = download_count + 1,
		    downloaded_at = COALESCE(downloaded_at, $2),
		    updated_at = NOW()
		WHERE token = $1
	`, token, at)
	if err != nil {
		return fmt.Errorf("increment download: %w", err)
	}
	return nil
}

func (r *TrackingRepo) RaiseScrollDepth(ctx context.Context, token string, percent int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposal_tracking
		SET max_scroll_depth = GREATEST(max_scroll_depth, $2), updated_at = NOW()
		WHERE token = $1
	`, token, percent)
	if err != nil {
		return fmt.Errorf("raise scroll depth: %w", err)
	}
	return nil
}

func (r *TrackingRepo) AddTimeSpent(ctx context.Context, token string, seconds int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposal_tracking
		SET time_spent_seconds = time_spent_seconds + $2, updated_at = NOW()
		WHERE token = $1
	`, token, seconds)
	if err != nil {
		return fmt.Errorf("add time spent: %w", err)
	}
	return nil
}

// InsertEvent appends one immutable event row to the table matching the
// event type. Event rows have no update path anywhere in the codebase.
func (r *TrackingRepo) InsertEvent(ctx context.Context, evt *domain.EngagementEvent) error {
	var q string
	args := []interface{}{evt.ID, evt.Token, evt.ProposalID, evt.IPAddress, evt.UserAgent, evt.Referrer, evt.CreatedAt}

	switch evt.Type {
	case domain.EngagementView:
		q = `
			INSERT INTO proposal_views
				(id, token, proposal_id, ip_address, user_agent, referrer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
	case domain.EngagementDownload:
		q = `
			INSERT INTO proposal_downloads
				(id, token, proposal_id, ip_address, user_agent, referrer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
	case domain.EngagementClick:
		q = `
			INSERT INTO proposal_click_tracking
				(id, token, proposal_id, ip_address, user_agent, referrer, element_id, element_text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		args = []interface{}{evt.ID, evt.Token, evt.ProposalID, evt.IPAddress, evt.UserAgent, evt.Referrer, evt.ElementID, evt.ElementText, evt.CreatedAt}
	default:
		return fmt.Errorf("no event table for type %q", evt.Type)
	}

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert %s event: %w", evt.Type, err)
	}
	return nil
}

func (r *TrackingRepo) IncrementProposalViews(ctx context.Context, proposalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposals SET view_count = view_count + 1, updated_at = NOW()
		WHERE id = $1
	`, proposalID)
	if err != nil {
		return fmt.Errorf("increment proposal views: %w", err)
	}
	return nil
}

func (r *TrackingRepo) IncrementProposalDownloads(ctx context.Context, proposalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE proposals SET download_count = download_count + 1, updated_at = NOW()
		WHERE id = $1
	`, proposalID)
	if err != nil {
		return fmt.Errorf("increment proposal downloads: %w", err)
	}
	return nil
}
