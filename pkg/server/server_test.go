package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/growthdesk/growthdesk/pkg/agent"
	"github.com/growthdesk/growthdesk/pkg/domain"
	"github.com/growthdesk/growthdesk/pkg/metrics"
	"github.com/growthdesk/growthdesk/pkg/model"
	"github.com/growthdesk/growthdesk/pkg/store/sqlite"
	"github.com/growthdesk/growthdesk/pkg/tools"
)

// scriptedProvider replays canned responses in order.
type scriptedProvider struct {
	responses []model.Message
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) List(ctx context.Context) ([]domain.ModelInfo, error) {
	return []domain.ModelInfo{{ID: "test-model", Name: "Test Model", Provider: "scripted"}}, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, modelName, instructions string, messages []model.Message, specs []domain.ToolSpec) (model.ModelStream, error) {
	p.calls++
	i := p.calls - 1
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return &scriptedStream{msg: p.responses[i]}, nil
}

type scriptedStream struct{ msg model.Message }

func (s *scriptedStream) FullMessage() (model.Message, error) { return s.msg, nil }
func (s *scriptedStream) Close() error                        { return nil }

func newTestHandler(t *testing.T, p model.Provider) http.Handler {
	t.Helper()
	st, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	registry := tools.NewRegistry()
	executor := tools.NewExecutor(registry, metrics.NewStore("missing.json", "missing.json"))
	loop := agent.New(p, registry, executor, "test-model", 0)

	return New(st, st, p, loop).Handler()
}

// sseFrames splits an event-stream body into its data payloads.
func sseFrames(t *testing.T, body string) []string {
	t.Helper()
	var frames []string
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if !strings.HasPrefix(chunk, "data: ") {
			t.Fatalf("malformed frame: %q", chunk)
		}
		frames = append(frames, strings.TrimPrefix(chunk, "data: "))
	}
	return frames
}

func postChat(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatMissingMessage(t *testing.T) {
	h := newTestHandler(t, &scriptedProvider{})

	w := postChat(h, `{"sessionId": "sess-1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatStreamsAndPersists(t *testing.T) {
	p := &scriptedProvider{responses: []model.Message{
		model.Text(domain.RoleAssistant, "Signups are up."),
	}}
	h := newTestHandler(t, p)

	w := postChat(h, `{"message": "How are signups?", "sessionId": "sess-1", "userEmail": "ana@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	frames := sseFrames(t, w.Body.String())
	if frames[len(frames)-1] != "[DONE]" {
		t.Fatalf("last frame = %q, want [DONE]", frames[len(frames)-1])
	}

	// thinking, text, session, then the sentinel.
	var types []string
	var sessionID string
	for _, f := range frames[:len(frames)-1] {
		var payload struct {
			Type      string `json:"type"`
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal([]byte(f), &payload); err != nil {
			t.Fatalf("unmarshal frame %q: %v", f, err)
		}
		types = append(types, payload.Type)
		if payload.Type == "session" {
			sessionID = payload.SessionID
		}
	}
	want := []string{"thinking", "text", "session"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("frame types = %v, want %v", types, want)
	}
	if sessionID != "sess-1" {
		t.Errorf("session frame id = %q, want sess-1", sessionID)
	}

	// The session and both turns are persisted.
	req := httptest.NewRequest("GET", "/api/sessions?userEmail=ana@example.com", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var sessResp struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sessResp); err != nil {
		t.Fatalf("unmarshal sessions: %v", err)
	}
	if len(sessResp.Sessions) != 1 || sessResp.Sessions[0].ID != "sess-1" {
		t.Fatalf("sessions = %+v, want one sess-1", sessResp.Sessions)
	}
	if sessResp.Sessions[0].Title != "How are signups?" {
		t.Errorf("session title = %q", sessResp.Sessions[0].Title)
	}

	req = httptest.NewRequest("GET", "/api/sessions/sess-1/messages", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var msgResp struct {
		Messages []domain.Turn `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msgResp); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(msgResp.Messages) != 2 {
		t.Fatalf("messages len = %d, want 2", len(msgResp.Messages))
	}
	if msgResp.Messages[0].Role != domain.RoleUser || msgResp.Messages[1].Role != domain.RoleAssistant {
		t.Errorf("roles = %q, %q", msgResp.Messages[0].Role, msgResp.Messages[1].Role)
	}
	if msgResp.Messages[1].AgentLabel != "coordinator" {
		t.Errorf("assistant agent_label = %q, want coordinator", msgResp.Messages[1].AgentLabel)
	}
}

func TestChatToolFrames(t *testing.T) {
	p := &scriptedProvider{responses: []model.Message{
		{
			Role: domain.RoleAssistant,
			Content: []model.Content{{
				Type: domain.ContentTypeToolCall,
				ToolCall: &domain.ToolCall{
					ID:   "call-1",
					Name: "think",
					Args: map[string]any{"thought": "checking"},
				},
			}},
		},
		model.Text(domain.RoleAssistant, "Done."),
	}}
	h := newTestHandler(t, p)

	w := postChat(h, `{"message": "analyze", "sessionId": "sess-1"}`)
	frames := sseFrames(t, w.Body.String())

	var sawCall, sawResult bool
	for _, f := range frames {
		if f == "[DONE]" {
			continue
		}
		var payload struct {
			Type   string `json:"type"`
			Tool   string `json:"tool"`
			Result string `json:"result"`
			ID     string `json:"id"`
		}
		if err := json.Unmarshal([]byte(f), &payload); err != nil {
			t.Fatalf("unmarshal frame %q: %v", f, err)
		}
		switch payload.Type {
		case "tool_call":
			sawCall = true
			if payload.Tool != "think" || payload.ID != "call-1" {
				t.Errorf("tool_call frame = %q", f)
			}
		case "tool_result":
			sawResult = true
			if payload.Result != "Thinking: checking" {
				t.Errorf("tool_result = %q", payload.Result)
			}
		}
	}
	if !sawCall || !sawResult {
		t.Errorf("saw tool_call=%v tool_result=%v, want both", sawCall, sawResult)
	}
}

// disconnectingProvider cancels the request context while the model
// call is in flight, as a client hanging up mid-stream would.
type disconnectingProvider struct {
	scriptedProvider
	disconnect context.CancelFunc
}

func (p *disconnectingProvider) Stream(ctx context.Context, modelName, instructions string, messages []model.Message, specs []domain.ToolSpec) (model.ModelStream, error) {
	p.disconnect()
	return p.scriptedProvider.Stream(ctx, modelName, instructions, messages, specs)
}

func TestChatClientDisconnectStillPersists(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &disconnectingProvider{
		scriptedProvider: scriptedProvider{responses: []model.Message{
			model.Text(domain.RoleAssistant, "Signups are up."),
		}},
		disconnect: cancel,
	}
	h := newTestHandler(t, p)

	req := httptest.NewRequest("POST", "/api/chat",
		strings.NewReader(`{"message": "How are signups?", "sessionId": "sess-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))

	// The run finishes despite the dead request context, and both turns
	// survive for the next session load.
	getReq := httptest.NewRequest("GET", "/api/sessions/sess-1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, getReq)
	var msgResp struct {
		Messages []domain.Turn `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msgResp); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(msgResp.Messages) != 2 {
		t.Fatalf("messages len = %d, want 2 (user + assistant)", len(msgResp.Messages))
	}
	if msgResp.Messages[1].Role != domain.RoleAssistant {
		t.Errorf("second turn role = %q, want assistant", msgResp.Messages[1].Role)
	}
	if msgResp.Messages[1].Content != "Signups are up." {
		t.Errorf("assistant content = %q", msgResp.Messages[1].Content)
	}
}

func TestListSessionsRequiresEmail(t *testing.T) {
	h := newTestHandler(t, &scriptedProvider{})

	req := httptest.NewRequest("GET", "/api/sessions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListMessagesUnknownSession(t *testing.T) {
	h := newTestHandler(t, &scriptedProvider{})

	req := httptest.NewRequest("GET", "/api/sessions/nope/messages", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	p := &scriptedProvider{responses: []model.Message{
		model.Text(domain.RoleAssistant, "Hi."),
	}}
	h := newTestHandler(t, p)

	postChat(h, `{"message": "hello", "sessionId": "sess-1"}`)

	req := httptest.NewRequest("DELETE", "/api/sessions/sess-1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/sessions/sess-1/messages", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("messages after delete status = %d, want 404", w.Code)
	}
}

func TestListModels(t *testing.T) {
	h := newTestHandler(t, &scriptedProvider{})

	req := httptest.NewRequest("GET", "/api/models", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var models []domain.ModelInfo
	if err := json.Unmarshal(w.Body.Bytes(), &models); err != nil {
		t.Fatalf("unmarshal models: %v", err)
	}
	if len(models) != 1 || models[0].ID != "test-model" {
		t.Errorf("models = %+v", models)
	}
}

func TestResultPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"stats member", `{"event": "signup", "stats": {"total": 250}}`, `{"total": 250}`},
		{"summary member", `{"summary": {"totalPosts": 3}, "videos": []}`, `{"totalPosts": 3}`},
		{"plain object", `{"count": 1}`, `{"count": 1}`},
		{"non-json", "Thinking: hmm", "Thinking: hmm"},
	}
	for _, tt := range tests {
		if got := resultPreview(tt.in); got != tt.want {
			t.Errorf("%s: resultPreview = %q, want %q", tt.name, got, tt.want)
		}
	}
}
