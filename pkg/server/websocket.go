package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleSessionLive pushes a session's turns over a websocket as they
// are appended. It is a read-only feed: messages are sent through the
// chat endpoint, not the socket.
func (s *Server) handleSessionLive(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}

	// Verify the session exists.
	if _, err := s.sessions.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}
	defer ws.Close()

	done := make(chan struct{})
	updates := s.turns.Subscribe()

	// Send current history first.
	sentIDs := make(map[string]bool)
	if err := s.syncTurns(ws, sessionID, sentIDs); err != nil {
		slog.Error("Failed initial turn sync", "error", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)

	// Writer goroutine: pushes new turns to the client.
	go func() {
		defer wg.Done()
		defer ws.Close()

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case id := <-updates:
				if id == sessionID {
					if err := s.syncTurns(ws, sessionID, sentIDs); err != nil {
						slog.Error("Failed turn sync", "error", err)
						return
					}
				}
			case <-ticker.C:
				// Keepalive
			}
		}
	}()

	// Reader loop: drains client frames until the socket closes.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket closed", "error", err)
			}
			break
		}
	}

	close(done)
	wg.Wait()
}

func (s *Server) syncTurns(ws *websocket.Conn, sessionID string, sentIDs map[string]bool) error {
	turns, err := s.turns.ListTurns(context.Background(), sessionID)
	if err != nil {
		return err
	}

	for _, t := range turns {
		if !sentIDs[t.ID] {
			if err := ws.WriteJSON(t); err != nil {
				return err
			}
			sentIDs[t.ID] = true
		}
	}
	return nil
}
