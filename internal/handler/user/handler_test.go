package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	"github.com/mindbridge/counsel/backend/internal/repository"
	counselingsvc "github.com/mindbridge/counsel/backend/internal/service/counseling"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(counselingsvc.NewService(repository.NewMemory(), nil)).RegisterRoutes(r)
	return r
}

func TestCreateAndGetUser(t *testing.T) {
	r := setupRouter()

	payload, _ := json.Marshal(map[string]string{"nickname": "cloud", "region": "Incheon"})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var created counseling.User
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/"+created.ID, nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestCreateUserMissingNickname(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/nobody", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
