package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/model/chat"
	"github.com/mindbridge/counsel/backend/internal/service/counsel"
	"github.com/mindbridge/counsel/backend/pkg/utils"
)

// Conversations is the part of the session manager exposed over HTTP.
type Conversations interface {
	StartSession(ctx context.Context) (counsel.Greeting, error)
	SendMessage(ctx context.Context, text, sessionID string) (counsel.Reply, error)
	Transcript(ctx context.Context, sessionID string) ([]chat.Turn, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// Handler serves the chat endpoints.
type Handler struct {
	conversations Conversations
	ws            *WebSocketHandler
}

// New returns a Handler serving both the REST and websocket chat routes.
func New(conversations Conversations) *Handler {
	return &Handler{
		conversations: conversations,
		ws:            NewWebSocketHandler(conversations),
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleStartSession)
	r.Post("/", h.handleSendMessage)
	r.Get("/ws", h.ws.handleWebSocket)
	r.Get("/{sessionID}", h.handleTranscript)
	r.Delete("/{sessionID}", h.handleClear)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	greeting, err := h.conversations.StartSession(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, greeting)
}

type sendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload sendMessageRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.conversations.SendMessage(r.Context(), payload.Message, payload.SessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.conversations.Transcript(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.conversations.ClearSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps manager errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, counsel.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, counsel.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "chat request failed", "path", r.URL.Path, "error", err)
		utils.RespondError(w, status, "internal error")
		return
	}
	utils.RespondError(w, status, err.Error())
}
