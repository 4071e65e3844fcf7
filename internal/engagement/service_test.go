package engagement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cleanbid/backend/internal/domain"
)

type memStore struct {
	mu                sync.Mutex
	rows              map[string]*domain.Tracking
	events            []*domain.EngagementEvent
	proposalViews     map[string]int
	proposalDownloads map[string]int

	failCounters bool
	counterErr   error
}

func newMemStore() *memStore {
	return &memStore{
		rows:              make(map[string]*domain.Tracking),
		proposalViews:     make(map[string]int),
		proposalDownloads: make(map[string]int),
	}
}

func (m *memStore) GetByToken(_ context.Context, token string) (*domain.Tracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) CreateToken(_ context.Context, t *domain.Tracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows[t.Token] = &cp
	return nil
}

func (m *memStore) MarkOpened(_ context.Context, token string, at time.Time, c domain.Caller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows[token]
	t.Opened = true
	if t.OpenedAt == nil {
		t.OpenedAt = &at
	}
	t.UserAgent, t.IPAddress = c.UserAgent, c.IPAddress
	return nil
}

func (m *memStore) IncrementView(_ context.Context, token string, at time.Time, c domain.Caller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCounters {
		return m.counterErr
	}
	t := m.rows[token]
	t.Viewed = true
	t.ViewCount++
	if t.FirstViewAt == nil {
		t.FirstViewAt = &at
	}
	t.LastViewedAt = &at
	t.UserAgent, t.IPAddress = c.UserAgent, c.IPAddress
	return nil
}

func (m *memStore) IncrementDownload(_ context.Context, token string, at time.Time, c domain.Caller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows[token]
	t.Downloaded = true
	t.DownloadCount++
	if t.DownloadedAt == nil {
		t.DownloadedAt = &at
	}
	return nil
}

func (m *memStore) RaiseScrollDepth(_ context.Context, token string, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows[token]
	if percent > t.MaxScrollDepth {
		t.MaxScrollDepth = percent
	}
	return nil
}

func (m *memStore) AddTimeSpent(_ context.Context, token string, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[token].TimeSpentSeconds += seconds
	return nil
}

func (m *memStore) InsertEvent(_ context.Context, evt *domain.EngagementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *evt
	m.events = append(m.events, &cp)
	return nil
}

func (m *memStore) IncrementProposalViews(_ context.Context, proposalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalViews[proposalID]++
	return nil
}

func (m *memStore) IncrementProposalDownloads(_ context.Context, proposalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalDownloads[proposalID]++
	return nil
}

func seed(t *testing.T, store *memStore) *domain.Tracking {
	t.Helper()
	tr := &domain.Tracking{Token: "tok-1", ProposalID: "prop-1"}
	if err := store.CreateToken(context.Background(), tr); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tr
}

func TestRecordOpenUnknownTokenIsNoOp(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	if err := svc.RecordOpen(context.Background(), "ghost", domain.Caller{}); err != nil {
		t.Fatalf("open must not error on unknown token, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Error("open must not create rows for unknown tokens")
	}
}

func TestRecordOpenFirstTimestampWins(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	svc.RecordOpen(context.Background(), "tok-1", domain.Caller{UserAgent: "ua-1"})
	first := *store.rows["tok-1"].OpenedAt

	time.Sleep(2 * time.Millisecond)
	svc.RecordOpen(context.Background(), "tok-1", domain.Caller{UserAgent: "ua-2"})

	got := store.rows["tok-1"]
	if !got.Opened {
		t.Error("expected opened=true")
	}
	if !got.OpenedAt.Equal(first) {
		t.Errorf("opened_at rewritten: %v != %v", got.OpenedAt, first)
	}
	if got.UserAgent != "ua-2" {
		t.Errorf("caller metadata should refresh, got %q", got.UserAgent)
	}
}

func TestRecordViewCountsEveryBeacon(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	// No dedupe: two beacons from the same viewer count twice.
	svc.RecordView(context.Background(), "tok-1", domain.Caller{IPAddress: "1.2.3.4"})
	svc.RecordView(context.Background(), "tok-1", domain.Caller{IPAddress: "1.2.3.4"})

	got := store.rows["tok-1"]
	if got.ViewCount != 2 {
		t.Errorf("view_count = %d, want 2", got.ViewCount)
	}
	if len(store.events) != 2 {
		t.Errorf("event rows = %d, want 2", len(store.events))
	}
	if store.proposalViews["prop-1"] != 2 {
		t.Errorf("proposal view counter = %d, want 2", store.proposalViews["prop-1"])
	}
	if got.FirstViewAt == nil || got.LastViewedAt == nil {
		t.Fatal("expected view timestamps set")
	}
}

func TestRecordViewUnknownToken(t *testing.T) {
	svc := NewService(newMemStore())

	err := svc.RecordView(context.Background(), "ghost", domain.Caller{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordViewPartialFailureStillWritesRest(t *testing.T) {
	store := newMemStore()
	store.failCounters = true
	store.counterErr = errors.New("deadlock")
	svc := NewService(store)
	seed(t, store)

	if err := svc.RecordView(context.Background(), "tok-1", domain.Caller{}); err != nil {
		t.Fatalf("partial failure must not surface, got %v", err)
	}
	if len(store.events) != 1 {
		t.Errorf("event rows = %d, want 1 despite counter failure", len(store.events))
	}
	if store.proposalViews["prop-1"] != 1 {
		t.Errorf("proposal counter = %d, want 1 despite counter failure", store.proposalViews["prop-1"])
	}
}

func TestRecordDownload(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	if err := svc.RecordDownload(context.Background(), "tok-1", domain.Caller{}); err != nil {
		t.Fatalf("download: %v", err)
	}
	got := store.rows["tok-1"]
	if !got.Downloaded || got.DownloadCount != 1 {
		t.Errorf("downloaded=%v count=%d, want true/1", got.Downloaded, got.DownloadCount)
	}
	if store.proposalDownloads["prop-1"] != 1 {
		t.Errorf("proposal download counter = %d, want 1", store.proposalDownloads["prop-1"])
	}
	if len(store.events) != 1 || store.events[0].Type != domain.EngagementDownload {
		t.Fatalf("expected one download event, got %v", store.events)
	}
}

func TestRecordScrollDepthMonotonic(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	svc.RecordScrollDepth(context.Background(), "tok-1", 80, domain.Caller{})
	svc.RecordScrollDepth(context.Background(), "tok-1", 40, domain.Caller{})

	if got := store.rows["tok-1"].MaxScrollDepth; got != 80 {
		t.Errorf("max_scroll_depth = %d, want 80 (never decreases)", got)
	}
}

func TestRecordScrollDepthRejectsOutOfRange(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	for _, percent := range []int{-1, 101, 150} {
		err := svc.RecordScrollDepth(context.Background(), "tok-1", percent, domain.Caller{})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("percent %d: expected ErrInvalidArgument, got %v", percent, err)
		}
	}
	// Rejected, not clamped.
	if got := store.rows["tok-1"].MaxScrollDepth; got != 0 {
		t.Errorf("max_scroll_depth = %d, want 0 after rejected beacons", got)
	}
}

func TestRecordTimeSpentTruncatesToSeconds(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	svc.RecordTimeSpent(context.Background(), "tok-1", 1500, domain.Caller{})
	svc.RecordTimeSpent(context.Background(), "tok-1", 999, domain.Caller{})
	svc.RecordTimeSpent(context.Background(), "tok-1", 45000, domain.Caller{})

	if got := store.rows["tok-1"].TimeSpentSeconds; got != 46 {
		t.Errorf("time_spent_seconds = %d, want 46", got)
	}

	err := svc.RecordTimeSpent(context.Background(), "tok-1", -5, domain.Caller{})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for negative duration, got %v", err)
	}
}

func TestRecordClickTruncatesDescriptors(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	seed(t, store)

	longText := strings.Repeat("x", 400)
	longID := strings.Repeat("y", 150)
	if err := svc.RecordClick(context.Background(), "tok-1", longID, longText, domain.Caller{}); err != nil {
		t.Fatalf("click: %v", err)
	}

	evt := store.events[0]
	if len(evt.ElementText) != 255 {
		t.Errorf("element_text length = %d, want 255", len(evt.ElementText))
	}
	if len(evt.ElementID) != 100 {
		t.Errorf("element_id length = %d, want 100", len(evt.ElementID))
	}
}

func TestRecordClickUnknownTokenSucceeds(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	if err := svc.RecordClick(context.Background(), "ghost", "cta", "Accept", domain.Caller{}); err != nil {
		t.Fatalf("click must not error on unknown token, got %v", err)
	}
	if len(store.events) != 0 {
		t.Error("click on unknown token must not write events")
	}
}

func TestMintToken(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	a, err := svc.MintToken(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	b, _ := svc.MintToken(context.Background(), "prop-1")

	if a.Token == "" || a.Token == b.Token {
		t.Errorf("tokens must be unique and non-empty: %q vs %q", a.Token, b.Token)
	}
	if len(store.rows) != 2 {
		t.Errorf("rows = %d, want one per mint", len(store.rows))
	}
}
