package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

func newSyncFixture(t *testing.T) (*stubUserRepo, *SyncService) {
	t.Helper()
	repo := newStubUserRepo()
	users := NewUserService(repo, true, zerolog.Nop())
	if _, err := users.Register(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return repo, NewSyncService(repo, zerolog.Nop())
}

func TestSyncService_UpdateThenGet_RoundTrip(t *testing.T) {
	_, sync := newSyncFixture(t)

	input := ports.ProgressInput{
		Progress:   "/body/DocFragment[12]/body/div/p[3]/text().87",
		Percentage: decimal.RequireFromString("0.5"),
		Device:     "kindle",
		DeviceID:   "dev-1",
	}

	before := time.Now().UTC()
	stored, err := sync.UpdateProgress(context.Background(), "alice", "abc123", input)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if stored.Timestamp.Before(before) {
		t.Fatalf("timestamp %v earlier than update time %v", stored.Timestamp, before)
	}

	got, err := sync.GetProgress(context.Background(), "alice", "abc123")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.DocumentHash != "abc123" ||
		got.Progress != input.Progress ||
		got.Device != input.Device ||
		got.DeviceID != input.DeviceID {
		t.Fatalf("stored record does not match payload: %+v", got)
	}
	if !got.Percentage.Equal(input.Percentage) {
		t.Fatalf("expected percentage 0.5, got %s", got.Percentage)
	}
	if !got.Timestamp.Equal(stored.Timestamp) {
		t.Fatalf("timestamps differ: %v vs %v", got.Timestamp, stored.Timestamp)
	}
}

func TestSyncService_UpdateProgress_FullReplacement(t *testing.T) {
	_, sync := newSyncFixture(t)

	first := ports.ProgressInput{
		Progress:   "page-10",
		Percentage: decimal.RequireFromString("0.10"),
		Device:     "kindle",
		DeviceID:   "dev-1",
	}
	second := ports.ProgressInput{
		Progress:   "page-42",
		Percentage: decimal.RequireFromString("0.42"),
		Device:     "phone",
		DeviceID:   "dev-2",
	}

	if _, err := sync.UpdateProgress(context.Background(), "alice", "abc123", first); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if _, err := sync.UpdateProgress(context.Background(), "alice", "abc123", second); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	got, err := sync.GetProgress(context.Background(), "alice", "abc123")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Device != "phone" || got.DeviceID != "dev-2" || got.Progress != "page-42" {
		t.Fatalf("expected full replacement by second payload, got %+v", got)
	}
}

func TestSyncService_Timestamp_MonotonicNonDecreasing(t *testing.T) {
	_, sync := newSyncFixture(t)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sync.now = func() time.Time { return clock }

	input := ports.ProgressInput{Progress: "p", Percentage: decimal.Zero, Device: "d", DeviceID: "id"}

	var last time.Time
	for i := 0; i < 3; i++ {
		stored, err := sync.UpdateProgress(context.Background(), "alice", "abc123", input)
		if err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
		if stored.Timestamp.Before(last) {
			t.Fatalf("timestamp went backwards: %v after %v", stored.Timestamp, last)
		}
		last = stored.Timestamp
		clock = clock.Add(time.Second)
	}
}

func TestSyncService_GetProgress_NeverSynced(t *testing.T) {
	_, sync := newSyncFixture(t)

	if _, err := sync.GetProgress(context.Background(), "alice", "deadbeef"); err != domain.ErrDocumentNotFound {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSyncService_UpdateProgress_UnknownUser(t *testing.T) {
	_, sync := newSyncFixture(t)

	input := ports.ProgressInput{Progress: "p", Percentage: decimal.Zero}
	if _, err := sync.UpdateProgress(context.Background(), "ghost", "abc123", input); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSyncService_Percentage_ArbitraryPrecision(t *testing.T) {
	_, sync := newSyncFixture(t)

	raw := "0.123456789012345678901234567890"
	input := ports.ProgressInput{
		Progress:   "p",
		Percentage: decimal.RequireFromString(raw),
	}

	if _, err := sync.UpdateProgress(context.Background(), "alice", "abc123", input); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := sync.GetProgress(context.Background(), "alice", "abc123")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Percentage.String() != raw {
		t.Fatalf("percentage lost precision: %s", got.Percentage)
	}
}
