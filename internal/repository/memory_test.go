package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/repository"
)

func TestMemoryUsers(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, counseling.User{Nickname: "river", Region: "Seoul"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", user)
	}

	got, err := repo.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got.Nickname != "river" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySummariesByUser(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	first, _ := repo.SaveSummary(ctx, summary.Record{UserID: "u1", EmotionSummary: summary.Fallback()})
	_, _ = repo.SaveSummary(ctx, summary.Record{UserID: "u2", EmotionSummary: summary.Fallback()})
	_, _ = repo.SaveSummary(ctx, summary.Record{UserID: "u1", EmotionSummary: summary.Fallback()})

	list, err := repo.ListSummariesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSummariesByUser returned error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(list))
	}

	got, err := repo.GetSummary(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetSummary returned error: %v", err)
	}
	if got.DominantEmotion != summary.UnknownEmotion {
		t.Fatalf("unexpected summary: %+v", got)
	}

	empty, err := repo.ListSummariesByUser(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v (%v)", empty, err)
	}
}

func TestMemoryCounselingStatusByMeeting(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	session, err := repo.CreateCounselingSession(ctx, counseling.Session{UserID: "u1", MeetingID: "m-1"})
	if err != nil {
		t.Fatalf("CreateCounselingSession returned error: %v", err)
	}
	if session.Status != counseling.StatusScheduled {
		t.Fatalf("expected default status scheduled, got %q", session.Status)
	}

	if err := repo.UpdateCounselingStatusByMeeting(ctx, "m-1", counseling.StatusInProgress); err != nil {
		t.Fatalf("UpdateCounselingStatusByMeeting returned error: %v", err)
	}
	got, _ := repo.GetCounselingSession(ctx, session.ID)
	if got.Status != counseling.StatusInProgress {
		t.Fatalf("expected in_progress, got %q", got.Status)
	}

	if err := repo.UpdateCounselingStatusByMeeting(ctx, "m-unknown", counseling.StatusCompleted); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	byUser, _ := repo.ListCounselingSessionsByUser(ctx, "u1")
	if len(byUser) != 1 {
		t.Fatalf("expected 1 session for user, got %d", len(byUser))
	}
}
