package summary

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/model/summary"
	"github.com/mindbridge/counsel/backend/internal/service/counsel"
	counselingsvc "github.com/mindbridge/counsel/backend/internal/service/counseling"
	"github.com/mindbridge/counsel/backend/pkg/utils"
)

// Trigger produces a summary and forgets the conversation.
type Trigger interface {
	RequestSummary(ctx context.Context, sessionID, userID string) (counsel.SummaryResult, error)
}

// Records reads stored summaries.
type Records interface {
	Summary(ctx context.Context, id string) (summary.Record, error)
	SummariesByUser(ctx context.Context, userID string) ([]summary.Record, error)
}

// Handler serves emotion summaries.
type Handler struct {
	trigger Trigger
	records Records
}

// New returns a Handler that creates summaries through trigger and reads
// stored ones from records.
func New(trigger Trigger, records Records) *Handler {
	return &Handler{trigger: trigger, records: records}
}

// RegisterRoutes mounts the summary routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleRequest)
	r.Get("/user/{userID}", h.handleByUser)
	r.Get("/{id}", h.handleGet)
}

type summaryRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var payload summaryRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.trigger.RequestSummary(r.Context(), payload.SessionID, payload.UserID)
	switch {
	case errors.Is(err, counsel.ErrUnknownSession):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		slog.ErrorContext(r.Context(), "summary request failed", "session_id", payload.SessionID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	default:
		utils.RespondJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.Summary(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, counselingsvc.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "summary not found")
	case err != nil:
		slog.ErrorContext(r.Context(), "summary lookup failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	default:
		utils.RespondJSON(w, http.StatusOK, record)
	}
}

func (h *Handler) handleByUser(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.SummariesByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		slog.ErrorContext(r.Context(), "summary listing failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"summaries": records})
}
