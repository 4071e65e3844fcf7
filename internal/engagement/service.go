package engagement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// Bounds applied to click descriptors before they reach storage.
const (
	maxElementTextLen = 255
	maxElementIDLen   = 100
)

// Service applies engagement events to the store. It implements Recorder;
// the SQS consumer and the in-process beacon handlers both call it.
type Service struct {
	store Store
}

// NewService creates the engagement service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// MintToken creates a fresh tracking token row for a shared proposal and
// returns it. One call mints exactly one token.
func (s *Service) MintToken(ctx context.Context, proposalID string) (*domain.Tracking, error) {
	t := &domain.Tracking{
		Token:      uuid.New().String(),
		ProposalID: proposalID,
	}
	if err := s.store.CreateToken(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ResolveToken returns the tracking row for a token. Used by the public
// download path to find the proposal behind a share link.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domain.Tracking, error) {
	return s.store.GetByToken(ctx, token)
}

// RecordOpen marks the token as opened. It never returns an error: the open
// pixel must render no matter what, so an unknown token is a silent no-op
// and a store failure is only logged.
func (s *Service) RecordOpen(ctx context.Context, token string, c domain.Caller) error {
	tr, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error("open lookup failed", "token", token, "error", err.Error())
		}
		return nil
	}
	if err := s.store.MarkOpened(ctx, tr.Token, time.Now().UTC(), c); err != nil {
		logger.Error("open write failed", "token", token, "error", err.Error())
	}
	return nil
}

// RecordView records one page view: token aggregate, immutable view event,
// and the parent proposal's counter. The three writes are independent and
// best effort; a failure in one does not roll back or suppress the others.
// Unknown tokens surface ErrNotFound so the caller can 404.
func (s *Service) RecordView(ctx context.Context, token string, c domain.Caller) error {
	tr, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.store.IncrementView(ctx, tr.Token, now, c); err != nil {
		logger.Error("view counter write failed", "token", token, "error", err.Error())
	}
	if err := s.store.InsertEvent(ctx, s.event(tr, domain.EngagementView, c, now)); err != nil {
		logger.Error("view event write failed", "token", token, "error", err.Error())
	}
	if err := s.store.IncrementProposalViews(ctx, tr.ProposalID); err != nil {
		logger.Error("proposal view counter write failed", "proposal_id", tr.ProposalID, "error", err.Error())
	}
	return nil
}

// RecordDownload records one PDF download with the same best-effort
// three-write shape as RecordView.
func (s *Service) RecordDownload(ctx context.Context, token string, c domain.Caller) error {
	tr, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.store.IncrementDownload(ctx, tr.Token, now, c); err != nil {
		logger.Error("download counter write failed", "token", token, "error", err.Error())
	}
	if err := s.store.InsertEvent(ctx, s.event(tr, domain.EngagementDownload, c, now)); err != nil {
		logger.Error("download event write failed", "token", token, "error", err.Error())
	}
	if err := s.store.IncrementProposalDownloads(ctx, tr.ProposalID); err != nil {
		logger.Error("proposal download counter write failed", "proposal_id", tr.ProposalID, "error", err.Error())
	}
	return nil
}

// RecordScrollDepth raises the token's maximum scroll depth. Percent must
// be within [0,100]; anything else is rejected, not clamped.
func (s *Service) RecordScrollDepth(ctx context.Context, token string, percent int, _ domain.Caller) error {
	if err := ValidateScrollPercent(percent); err != nil {
		return err
	}
	tr, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.store.RaiseScrollDepth(ctx, tr.Token, percent); err != nil {
		logger.Error("scroll write failed", "token", token, "error", err.Error())
	}
	return nil
}

// RecordTimeSpent accumulates reported reading time. Milliseconds are
// truncated to whole seconds; sub-second reports add nothing but still
// succeed. Negative durations are rejected.
func (s *Service) RecordTimeSpent(ctx context.Context, token string, milliseconds int64, _ domain.Caller) error {
	if err := ValidateTimeSpent(milliseconds); err != nil {
		return err
	}
	tr, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	seconds := int(milliseconds / 1000)
	if err := s.store.AddTimeSpent(ctx, tr.Token, seconds); err != nil {
		logger.Error("time write failed", "token", token, "error", err.Error())
	}
	return nil
}

// RecordClick appends a click event with bounded descriptors. Like the open
// pixel it always succeeds from the caller's point of view; an unknown
// token is a silent no-op.
func (s *Service) RecordClick(ctx context.Context, token, elementID, elementText string, c domain.Caller) error {
	tr, err := s.store.GetByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error("click lookup failed", "token", token, "error", err.Error())
		}
		return nil
	}

	evt := s.event(tr, domain.EngagementClick, c, time.Now().UTC())
	evt.ElementID = truncate(elementID, maxElementIDLen)
	evt.ElementText = truncate(elementText, maxElementTextLen)
	if err := s.store.InsertEvent(ctx, evt); err != nil {
		logger.Error("click event write failed", "token", token, "error", err.Error())
	}
	return nil
}

func (s *Service) event(tr *domain.Tracking, kind domain.EngagementType, c domain.Caller, at time.Time) *domain.EngagementEvent {
	return &domain.EngagementEvent{
		ID:         uuid.New().String(),
		Token:      tr.Token,
		ProposalID: tr.ProposalID,
		Type:       kind,
		IPAddress:  c.IPAddress,
		UserAgent:  c.UserAgent,
		Referrer:   c.Referrer,
		CreatedAt:  at,
	}
}

// ValidateScrollPercent rejects scroll percentages outside [0,100].
func ValidateScrollPercent(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidArgument
	}
	return nil
}

// ValidateTimeSpent rejects negative durations.
func ValidateTimeSpent(milliseconds int64) error {
	if milliseconds < 0 {
		return ErrInvalidArgument
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so we never emit broken UTF-8.
	runes := []rune(s)
	for len(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
