package counseling

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	counselingsvc "github.com/mindbridge/counsel/backend/internal/service/counseling"
	"github.com/mindbridge/counsel/backend/pkg/utils"
)

// Service is the counseling request workflow used by the handler.
type Service interface {
	CreateRequest(ctx context.Context, req counselingsvc.Request) (counseling.Session, error)
	Session(ctx context.Context, id string) (counseling.Session, error)
	SessionsByUser(ctx context.Context, userID string) ([]counseling.Session, error)
	CancelSession(ctx context.Context, id string) (counseling.Session, error)
	AdminSessions(ctx context.Context) ([]counselingsvc.AdminSession, error)
}

// Handler serves counseling requests and the counselor dashboard.
type Handler struct {
	svc Service
}

// New returns a Handler backed by svc.
func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the counseling request routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/request", h.handleRequest)
	r.Get("/user/{userID}", h.handleByUser)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleCancel)
}

// RegisterAdminRoutes mounts the counselor dashboard routes.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/sessions", h.handleAdminSessions)
}

type requestResponse struct {
	SessionID  string            `json:"session_id"`
	MeetingURL string            `json:"meeting_url"`
	Status     counseling.Status `json:"status"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var payload counselingsvc.Request
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.svc.CreateRequest(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, requestResponse{
		SessionID:  session.ID,
		MeetingURL: session.MeetingURL,
		Status:     session.Status,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.CancelSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleByUser(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.SessionsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.AdminSessions(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, counselingsvc.ErrInvalidRequest):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, counselingsvc.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, counselingsvc.ErrSessionClosed):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, counselingsvc.ErrMeetingUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.ErrorContext(r.Context(), "counseling request failed", "path", r.URL.Path, "error", err)
		utils.RespondError(w, http.StatusBadGateway, "counseling request failed")
	}
}
