package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/recovery"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubRecoveries struct {
	records   []domain.RecoveryRecord
	conflicts map[primitive.ObjectID]bool
	refreshed map[primitive.ObjectID]domain.RecoveryStatus
	listErr   error
}

func (s *stubRecoveries) Upsert(context.Context, repository.RecoveryUpsert) (*domain.RecoveryRecord, error) {
	return nil, errors.New("not used")
}

func (s *stubRecoveries) ListForUser(context.Context, primitive.ObjectID) ([]domain.RecoveryRecord, error) {
	return nil, errors.New("not used")
}

func (s *stubRecoveries) ForEach(_ context.Context, fn func(domain.RecoveryRecord) error) error {
	if s.listErr != nil {
		return s.listErr
	}
	for _, rec := range s.records {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRecoveries) RefreshStatus(_ context.Context, id primitive.ObjectID, _ time.Time, status domain.RecoveryStatus, _ string) error {
	if s.conflicts[id] {
		return repository.ErrConflict
	}
	s.refreshed[id] = status
	return nil
}

func record(exertedAgo time.Duration, status domain.RecoveryStatus, tip string, now time.Time) domain.RecoveryRecord {
	at := now.Add(-exertedAgo)
	return domain.RecoveryRecord{
		ID:             primitive.NewObjectID(),
		MuscleGroup:    "Chest",
		Status:         status,
		Tip:            &tip,
		LastExertionAt: &at,
		LastUpdated:    at,
	}
}

func TestRefreshOnce(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	stillRed := record(2*time.Hour, domain.RecoveryRed, "Ice and sleep.", now)
	nowYellow := record(30*time.Hour, domain.RecoveryRed, "Ice and sleep.", now)
	nowRecovered := record(80*time.Hour, domain.RecoveryGreen, recovery.TipMonitor, now)
	enhancedGreen := record(50*time.Hour, domain.RecoveryGreen, "Keep moving.", now)
	raced := record(60*time.Hour, domain.RecoveryYellow, recovery.TipLightMobility, now)

	stub := &stubRecoveries{
		records:   []domain.RecoveryRecord{stillRed, nowYellow, nowRecovered, enhancedGreen, raced},
		conflicts: map[primitive.ObjectID]bool{raced.ID: true},
		refreshed: map[primitive.ObjectID]domain.RecoveryStatus{},
	}
	r := NewRecoveryRefresher(stub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.now = func() time.Time { return now }

	res, err := r.RefreshOnce(context.Background())
	if err != nil {
		t.Fatalf("RefreshOnce() error = %v", err)
	}
	want := RefreshResult{Updated: 2, Unchanged: 2, Conflicts: 1}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if stub.refreshed[nowYellow.ID] != domain.RecoveryYellow {
		t.Errorf("30h record = %q, want yellow", stub.refreshed[nowYellow.ID])
	}
	if stub.refreshed[nowRecovered.ID] != domain.RecoveryGreen {
		t.Errorf("80h record not refreshed")
	}
	if _, ok := stub.refreshed[enhancedGreen.ID]; ok {
		t.Errorf("model tip overwritten without status change")
	}
}

func TestRefreshOnceListError(t *testing.T) {
	stub := &stubRecoveries{listErr: errors.New("down")}
	r := NewRecoveryRefresher(stub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := r.RefreshOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddRecoveryRefreshRejectsBadSpec(t *testing.T) {
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := NewRecoveryRefresher(&stubRecoveries{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.AddRecoveryRefresh("not a spec", r, time.Second); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.AddRecoveryRefresh("@every 15m", r, time.Second); err != nil {
		t.Fatalf("AddRecoveryRefresh() error = %v", err)
	}
}
