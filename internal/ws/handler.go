// Package ws provides the WebSocket chat transport. It carries the
// same event stream as the SSE endpoint, one JSON text frame per
// event, over a long-lived connection that can serve many turns.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripflow/tripflow/internal/conversation"
	"github.com/tripflow/tripflow/internal/store"
)

type chatFrame struct {
	Message string `json:"message"`
}

// Handler handles WebSocket chat connections.
type Handler struct {
	repo           store.Repository
	engine         *conversation.Engine
	allowedOrigins []string
}

// NewHandler creates a new WebSocket handler.
func NewHandler(repo store.Repository, engine *conversation.Engine, allowedOrigins []string) *Handler {
	return &Handler{repo: repo, engine: engine, allowedOrigins: allowedOrigins}
}

// RegisterRoutes registers the WebSocket chat route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.Chat)
}

// Chat upgrades the connection and serves conversation turns until the
// client disconnects. The session id comes from the session_id query
// parameter; when absent a fresh one is minted and announced in the
// opening frame.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		slog.Error("failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	ctx := r.Context()
	slog.Info("WebSocket chat connected", "session_id", sessionID)

	if err := writeJSON(ctx, ws, map[string]string{"type": "connected", "session_id": sessionID}); err != nil {
		slog.Debug("failed to send connected frame", "error", err, "session_id", sessionID)
		return
	}

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed by client", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var frame chatFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			if writeErr := writeJSON(ctx, ws, map[string]string{"error": "invalid frame"}); writeErr != nil {
				return
			}
			continue
		}
		message := strings.TrimSpace(frame.Message)
		if message == "" {
			if writeErr := writeJSON(ctx, ws, map[string]string{"error": "Message is required"}); writeErr != nil {
				return
			}
			continue
		}

		if !h.serveTurn(ctx, ws, sessionID, message) {
			return
		}
	}
}

// serveTurn streams one turn's events and the trailing state update.
// It reports whether the connection is still usable.
func (h *Handler) serveTurn(ctx context.Context, ws *websocket.Conn, sessionID, message string) bool {
	for ev, err := range h.engine.Respond(ctx, sessionID, message) {
		if err != nil {
			slog.Info("chat turn canceled", "session_id", sessionID, "error", err)
			return false
		}
		if err := writeJSON(ctx, ws, ev); err != nil {
			slog.Warn("failed to write chat event", "error", err, "session_id", sessionID)
			return false
		}
	}

	state, err := h.repo.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("failed to load session for state update", "session_id", sessionID, "error", err)
		}
		return true
	}
	if err := writeJSON(ctx, ws, &conversation.Event{Type: conversation.EventStateUpdate, State: state}); err != nil {
		slog.Warn("failed to write state update", "error", err, "session_id", sessionID)
		return false
	}
	return true
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
