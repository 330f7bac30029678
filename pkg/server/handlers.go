package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/growthdesk/growthdesk/pkg/agent"
	"github.com/growthdesk/growthdesk/pkg/domain"
	"github.com/growthdesk/growthdesk/pkg/model"
)

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	UserEmail string `json:"userEmail"`
}

// assistantMetadata is persisted alongside the final assistant turn.
type assistantMetadata struct {
	Iterations int      `json:"iterations"`
	ToolCalls  []string `json:"tool_calls,omitempty"`
	Truncated  bool     `json:"truncated,omitempty"`
}

// handleChat runs the agent loop for one user message and streams its
// events as server-sent frames, closing with the [DONE] sentinel.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err)
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, fmt.Errorf("missing required field: message"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session_%d", time.Now().UnixMilli())
	}

	ctx := r.Context()

	// The run outlives the request: a client disconnect must not abort
	// the in-flight model call or lose the assistant turn, it only stops
	// frame forwarding. Tool calls are pure reads, so letting the run
	// finish is safe.
	runCtx := context.WithoutCancel(ctx)

	// Bookkeeping happens before any frame is written so a storage
	// failure still produces a plain JSON error.
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		sess := &domain.Session{
			ID:        sessionID,
			UserEmail: req.UserEmail,
			Title:     sessionTitle(req.Message),
		}
		if err := s.sessions.CreateSession(ctx, sess); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err)
			return
		}
	}

	history, err := s.conversationHistory(r, sessionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.turns.AppendTurn(runCtx, &domain.Turn{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Role:        domain.RoleUser,
		ContentType: domain.ContentTypeText,
		Content:     req.Message,
	}); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}

	var (
		answer    strings.Builder
		meta      assistantMetadata
		forwarded = true
		failed    bool
	)

	for ev := range s.loop.Run(runCtx, history, req.Message) {
		switch ev.Type {
		case agent.EventToolCall:
			meta.ToolCalls = append(meta.ToolCalls, ev.ToolCall.Name)
		case agent.EventText:
			answer.WriteString(ev.Content)
		case agent.EventError:
			failed = true
		case agent.EventDone:
			meta.Iterations = ev.Iterations
			meta.Truncated = ev.Truncated
		}

		// A disconnected client stops forwarding, but the loop is left
		// to drain so its in-flight work completes.
		if !forwarded {
			continue
		}
		if f, ok := encodeEvent(ev); ok {
			if err := sse.writeFrame(f); err != nil {
				forwarded = false
			}
		}
	}

	if !failed && answer.Len() > 0 {
		metaJSON, _ := json.Marshal(meta)
		if err := s.turns.AppendTurn(runCtx, &domain.Turn{
			ID:          uuid.New().String(),
			SessionID:   sessionID,
			Role:        domain.RoleAssistant,
			ContentType: domain.ContentTypeText,
			Content:     answer.String(),
			AgentLabel:  "coordinator",
			Metadata:    string(metaJSON),
		}); err != nil && forwarded {
			sse.writeFrame(frame{Type: "error", Content: fmt.Sprintf("persisting response: %v", err)})
		}
	}

	if forwarded {
		sse.writeFrame(frame{Type: "session", SessionID: sessionID})
		sse.writeDone()
	}
}

// conversationHistory replays a session's prior text turns as model
// messages. Tool turns are not replayed: each loop run re-derives tool
// context from its own calls.
func (s *Server) conversationHistory(r *http.Request, sessionID string) ([]model.Message, error) {
	turns, err := s.turns.ListTurns(r.Context(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	var history []model.Message
	for _, t := range turns {
		if t.ContentType != domain.ContentTypeText {
			continue
		}
		if t.Role != domain.RoleUser && t.Role != domain.RoleAssistant {
			continue
		}
		history = append(history, model.Text(t.Role, t.Content))
	}
	return history, nil
}

// sessionTitle derives a display title from the first message.
func sessionTitle(message string) string {
	const maxTitle = 60
	title := strings.TrimSpace(message)
	if len(title) > maxTitle {
		title = title[:maxTitle] + "..."
	}
	return title
}

// --- Sessions ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userEmail := r.URL.Query().Get("userEmail")
	if userEmail == "" {
		s.errorResponse(w, http.StatusBadRequest, fmt.Errorf("missing userEmail parameter"))
		return
	}

	sessions, err := s.sessions.ListSessions(r.Context(), userEmail)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.GetSession(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusNotFound, err)
		return
	}

	turns, err := s.turns.ListTurns(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"messages": turns})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.DeleteSession(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Models ---

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.provider.List(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, models)
}
