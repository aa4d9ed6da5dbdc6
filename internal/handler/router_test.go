package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mindbridge/counsel/backend/internal/metrics"
	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/repository"
	chatService "github.com/mindbridge/counsel/backend/internal/service/chat"
	"github.com/mindbridge/counsel/backend/internal/service/counsel"
	counselingService "github.com/mindbridge/counsel/backend/internal/service/counseling"
)

type replyOracle struct{}

func (replyOracle) Reply(context.Context, []chat.Turn, string) (string, error) {
	return "okay", nil
}

type fallbackSummary struct{}

func (fallbackSummary) Summarize(context.Context, string) (summary.EmotionSummary, error) {
	return summary.Fallback(), nil
}

func newTestRouter() http.Handler {
	store := chatService.NewService()
	repo := repository.NewMemory()
	m := metrics.New(store.Len)
	manager := counsel.NewManager(counsel.Deps{
		Store:    store,
		Chat:     replyOracle{},
		Summary:  fallbackSummary{},
		Recorder: repo,
		Metrics:  m,
	})

	return NewRouter(Deps{
		Manager:    manager,
		Counseling: counselingService.NewService(repo, nil),
		Metrics:    m,
	})
}

func TestRouterHealthz(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRouterChatThenMetrics(t *testing.T) {
	r := newTestRouter()

	payload, _ := json.Marshal(map[string]string{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := resp.Body.String()
	if !strings.Contains(body, "counsel_messages_total 1") {
		t.Fatalf("expected message counter in metrics output")
	}
	if !strings.Contains(body, "counsel_live_sessions 1") {
		t.Fatalf("expected live sessions gauge in metrics output")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}
