package counseling

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/repository"
	counselingsvc "github.com/mindbridge/counsel/backend/internal/service/counseling"
	"github.com/mindbridge/counsel/backend/internal/service/meeting"
)

type fakeScheduler struct{}

func (fakeScheduler) CreateMeeting(context.Context, string, bool) (meeting.Meeting, error) {
	return meeting.Meeting{ID: "mtg-1", WebLink: "https://meet.example/mtg-1"}, nil
}

func (fakeScheduler) MeetingStatus(context.Context, string) (string, error) {
	return "active", nil
}

func (fakeScheduler) EndMeeting(context.Context, string) error {
	return nil
}

func setupRouter(t *testing.T) (*chi.Mux, counseling.User, summary.Record) {
	t.Helper()
	repo := repository.NewMemory()
	ctx := context.Background()
	user, _ := repo.CreateUser(ctx, counseling.User{Nickname: "star"})
	record, _ := repo.SaveSummary(ctx, summary.Record{UserID: user.ID, EmotionSummary: summary.Fallback()})

	h := New(counselingsvc.NewService(repo, fakeScheduler{}))
	r := chi.NewRouter()
	r.Route("/counseling", h.RegisterRoutes)
	r.Route("/admin", h.RegisterAdminRoutes)
	return r, user, record
}

func TestCounselingRequestFlow(t *testing.T) {
	r, user, record := setupRouter(t)

	payload, _ := json.Marshal(map[string]string{"user_id": user.ID, "summary_id": record.ID})
	req := httptest.NewRequest(http.MethodPost, "/counseling/request", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created requestResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.MeetingURL != "https://meet.example/mtg-1" || created.Status != counseling.StatusScheduled {
		t.Fatalf("unexpected response %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/counseling/"+created.SessionID, nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var admin struct {
		Sessions []counselingsvc.AdminSession `json:"sessions"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &admin); err != nil {
		t.Fatalf("decode admin response: %v", err)
	}
	if len(admin.Sessions) != 1 || admin.Sessions[0].User == nil || admin.Sessions[0].User.Nickname != "star" {
		t.Fatalf("unexpected admin sessions %s", resp.Body.String())
	}
}

func TestCounselingRequestInvalid(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/counseling/request", bytes.NewReader([]byte(`{"user_id":"x"}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCounselingSessionNotFound(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/counseling/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCounselingCancel(t *testing.T) {
	r, user, record := setupRouter(t)

	payload, _ := json.Marshal(map[string]string{"user_id": user.ID, "summary_id": record.ID})
	req := httptest.NewRequest(http.MethodPost, "/counseling/request", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var created requestResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/counseling/"+created.SessionID, nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var cancelled counseling.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode cancel response: %v", err)
	}
	if cancelled.Status != counseling.StatusCancelled {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}

	req = httptest.NewRequest(http.MethodDelete, "/counseling/"+created.SessionID, nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", resp.Code)
	}
}
