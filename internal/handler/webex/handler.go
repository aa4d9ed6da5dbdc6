package webex

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/service/meeting"
	"github.com/mindbridge/counsel/backend/pkg/utils"
)

const maxWebhookBytes = 64 << 10

// MeetingEvents applies provider webhook events.
type MeetingEvents interface {
	HandleMeetingEvent(ctx context.Context, event, meetingID string) (bool, error)
}

// Handler receives meeting provider webhooks.
type Handler struct {
	events MeetingEvents
	secret string
}

// New builds the webhook handler. An empty secret disables signature checks.
func New(events MeetingEvents, secret string) *Handler {
	return &Handler{events: events, secret: secret}
}

// RegisterRoutes mounts the webhook route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.handleWebhook)
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        string `json:"id"`
		MeetingID string `json:"meetingId"`
	} `json:"data"`
}

func (p webhookPayload) meetingID() string {
	if p.Data.MeetingID != "" {
		return p.Data.MeetingID
	}
	return p.Data.ID
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !meeting.VerifySignature(h.secret, body, r.Header.Get(meeting.SignatureHeader)) {
		slog.WarnContext(r.Context(), "webhook signature mismatch")
		utils.RespondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slog.InfoContext(r.Context(), "received meeting webhook", "event", payload.Event, "meeting_id", payload.meetingID())

	handled, err := h.events.HandleMeetingEvent(r.Context(), payload.Event, payload.meetingID())
	if err != nil {
		slog.ErrorContext(r.Context(), "webhook processing failed", "event", payload.Event, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"received": true,
		"handled":  handled,
		"event":    payload.Event,
	})
}
