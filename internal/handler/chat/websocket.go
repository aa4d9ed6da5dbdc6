package chat

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler carries chat turns over a websocket. One connection
// serves one conversation; the session id is fixed by the first reply.
type WebSocketHandler struct {
	conversations Conversations
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler returns a handler accepting connections from any origin.
func NewWebSocketHandler(conversations Conversations) *WebSocketHandler {
	return &WebSocketHandler{
		conversations: conversations,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type outgoingMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	Reply      string `json:"reply,omitempty"`
	MeetingURL string `json:"meeting_url,omitempty"`
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	if sessionID == "" {
		greeting, err := h.conversations.StartSession(ctx)
		if err != nil {
			h.send(conn, outgoingMessage{Type: "error", Error: "failed to start session"})
			return
		}
		sessionID = greeting.SessionID
		h.send(conn, outgoingMessage{Type: "greeting", SessionID: sessionID, Reply: greeting.Greeting})
	}

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.DebugContext(ctx, "websocket read failed", "session_id", sessionID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.Type != "" && msg.Type != "message" {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: "unsupported message type: " + msg.Type})
			continue
		}
		if msg.SessionID != "" && sessionID != "" && msg.SessionID != sessionID {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: "session mismatch"})
			continue
		}

		reply, err := h.conversations.SendMessage(ctx, msg.Message, sessionID)
		if err != nil {
			h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: err.Error()})
			continue
		}
		sessionID = reply.SessionID

		h.send(conn, outgoingMessage{
			Type:       "reply",
			SessionID:  reply.SessionID,
			Reply:      reply.Reply,
			MeetingURL: reply.MeetingURL,
		})
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		slog.Debug("websocket write failed", "type", msg.Type, "error", err)
	}
}

// pingLoop keeps idle connections alive. WriteControl is safe to call
// alongside WriteJSON.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
