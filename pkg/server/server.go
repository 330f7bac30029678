// Package server exposes the agent over HTTP: a streaming chat
// endpoint, session history endpoints and a websocket live feed.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/growthdesk/growthdesk/pkg/agent"
	"github.com/growthdesk/growthdesk/pkg/model"
	"github.com/growthdesk/growthdesk/pkg/store"
)

// Server serves the REST API for the chat agent.
type Server struct {
	sessions store.SessionStore
	turns    store.TurnStore
	provider model.Provider
	loop     *agent.Loop
	srv      *http.Server
}

// New creates a new Server.
func New(
	sessions store.SessionStore,
	turns store.TurnStore,
	provider model.Provider,
	loop *agent.Loop,
) *Server {
	return &Server{
		sessions: sessions,
		turns:    turns,
		provider: provider,
		loop:     loop,
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting server", "addr", addr)
	return s.srv.ListenAndServe()
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// Sessions
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	// Live feed
	mux.HandleFunc("/api/sessions/{id}/live", s.handleSessionLive)

	// Models
	mux.HandleFunc("GET /api/models", s.handleListModels)

	return s.corsMiddleware(mux)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, err error) {
	slog.Error("API Error", "error", err)
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}
