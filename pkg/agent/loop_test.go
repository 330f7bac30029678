package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/growthdesk/growthdesk/pkg/domain"
	"github.com/growthdesk/growthdesk/pkg/metrics"
	"github.com/growthdesk/growthdesk/pkg/model"
	"github.com/growthdesk/growthdesk/pkg/tools"
)

// scriptedProvider replays canned responses in order, repeating the
// last one once the script runs out.
type scriptedProvider struct {
	responses []model.Message
	err       error
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) List(ctx context.Context) ([]domain.ModelInfo, error) {
	return nil, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, modelName, instructions string, messages []model.Message, specs []domain.ToolSpec) (model.ModelStream, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	i := p.calls - 1
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return &scriptedStream{msg: p.responses[i]}, nil
}

type scriptedStream struct{ msg model.Message }

func (s *scriptedStream) FullMessage() (model.Message, error) { return s.msg, nil }
func (s *scriptedStream) Close() error                        { return nil }

// thinkCall is an assistant turn requesting the think tool, which
// needs no snapshot data to execute.
func thinkCall(id, thought string) model.Message {
	return model.Message{
		Role: domain.RoleAssistant,
		Content: []model.Content{{
			Type: domain.ContentTypeToolCall,
			ToolCall: &domain.ToolCall{
				ID:   id,
				Name: "think",
				Args: map[string]any{"thought": thought},
			},
		}},
	}
}

func newTestLoop(p model.Provider, maxIterations int) *Loop {
	registry := tools.NewRegistry()
	executor := tools.NewExecutor(registry, metrics.NewStore("missing.json", "missing.json"))
	return New(p, registry, executor, "test-model", maxIterations)
}

func collect(t *testing.T, loop *Loop, message string) []Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []Event
	for ev := range loop.Run(ctx, nil, message) {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestRunToolCallThenAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []model.Message{
		thinkCall("call-1", "checking the numbers"),
		model.Text(domain.RoleAssistant, "Signups are up 50% week over week."),
	}}
	loop := newTestLoop(p, 0)

	events := collect(t, loop, "How are signups trending?")

	want := []EventType{EventThinking, EventToolCall, EventToolResult, EventThinking, EventText, EventDone}
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event types = %v, want %v", got, want)
		}
	}

	if events[1].ToolCall.Name != "think" {
		t.Errorf("tool call name = %q, want think", events[1].ToolCall.Name)
	}
	if events[2].ToolResult.Output != "Thinking: checking the numbers" {
		t.Errorf("tool result = %q", events[2].ToolResult.Output)
	}
	if events[4].Content != "Signups are up 50% week over week." {
		t.Errorf("text = %q", events[4].Content)
	}

	done := events[len(events)-1]
	if done.Iterations != 2 || done.Truncated {
		t.Errorf("done = {iterations: %d, truncated: %v}, want {2, false}", done.Iterations, done.Truncated)
	}
	if p.calls != 2 {
		t.Errorf("model calls = %d, want 2", p.calls)
	}
}

func TestRunIterationCeiling(t *testing.T) {
	// The model never stops asking for tools.
	p := &scriptedProvider{responses: []model.Message{thinkCall("call-1", "still thinking")}}
	loop := newTestLoop(p, 3)

	events := collect(t, loop, "loop forever")

	if p.calls != 3 {
		t.Errorf("model calls = %d, want 3", p.calls)
	}

	done := events[len(events)-1]
	if done.Type != EventDone {
		t.Fatalf("last event = %q, want done", done.Type)
	}
	if !done.Truncated || done.Iterations != 3 {
		t.Errorf("done = {iterations: %d, truncated: %v}, want {3, true}", done.Iterations, done.Truncated)
	}

	notice := events[len(events)-2]
	if notice.Type != EventText || !strings.Contains(notice.Content, "maximum of 3") {
		t.Errorf("truncation notice = %+v", notice)
	}

	calls := 0
	for _, ev := range events {
		if ev.Type == EventToolCall {
			calls++
		}
	}
	if calls != 3 {
		t.Errorf("tool_call events = %d, want 3", calls)
	}
}

func TestRunProviderError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("quota exceeded")}
	loop := newTestLoop(p, 0)

	events := collect(t, loop, "hello")

	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("last event = %q, want error", last.Type)
	}
	if !strings.Contains(last.Content, "quota exceeded") {
		t.Errorf("error content = %q", last.Content)
	}
	for _, ev := range events {
		if ev.Type == EventDone {
			t.Error("done emitted after provider error")
		}
	}
}

func TestRunHistoryNotMutated(t *testing.T) {
	p := &scriptedProvider{responses: []model.Message{
		model.Text(domain.RoleAssistant, "ok"),
	}}
	loop := newTestLoop(p, 0)

	history := []model.Message{model.Text(domain.RoleUser, "earlier question")}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for range loop.Run(ctx, history, "follow-up") {
	}

	if len(history) != 1 {
		t.Errorf("history len = %d, want 1 (caller slice untouched)", len(history))
	}
}
