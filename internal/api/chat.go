package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripflow/tripflow/internal/conversation"
	"github.com/tripflow/tripflow/internal/store"
)

// maxChatBody bounds the chat request body size.
const maxChatBody = 64 << 10

type chatRequest struct {
	Message string `json:"message"`
}

// ChatHandler handles the conversation endpoints.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers the conversation routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/{sessionID}", h.Chat)
	r.Get("/session/{sessionID}", h.GetSession)
	r.Delete("/session/{sessionID}", h.DeleteSession)
	r.Get("/sessions", h.ListSessions)
}

// Chat runs one conversation turn and streams the bot's responses as
// Server-Sent Events. Each event is a single `data:` frame carrying a
// JSON object; the stream ends with a state_update event holding the
// persisted session.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		Error(w, http.StatusBadRequest, "Message is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error": "streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	for ev, err := range h.engine.Respond(r.Context(), sessionID, message) {
		if err != nil {
			slog.Info("chat stream canceled", "session_id", sessionID, "error", err)
			return
		}
		if err := writeSSE(w, ev); err != nil {
			slog.Warn("failed to write SSE event", "session_id", sessionID, "error", err)
			return
		}
		flusher.Flush()
	}

	state, err := h.repo.Load(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("failed to load session for state update", "session_id", sessionID, "error", err)
		}
		return
	}
	if err := writeSSE(w, &conversation.Event{Type: conversation.EventStateUpdate, State: state}); err != nil {
		slog.Warn("failed to write state update", "session_id", sessionID, "error", err)
		return
	}
	flusher.Flush()
}

// GetSession returns the session snapshot with its message history.
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s, err := h.repo.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "Session not found")
			return
		}
		slog.Error("failed to load session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"state":      s,
		"messages":   s.Messages,
	})
}

// DeleteSession removes the session. Deleting a session that does not
// exist still succeeds.
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.repo.Delete(r.Context(), sessionID); err != nil {
		slog.Error("failed to delete session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

// ListSessions returns all stored sessions.
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list sessions", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func writeSSE(w io.Writer, ev *conversation.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
