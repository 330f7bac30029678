// Package agent drives the tool-calling loop: it repeatedly calls the
// model provider, executes requested tools against the metric store,
// feeds results back, and emits ordered events describing each step.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/growthdesk/growthdesk/pkg/domain"
	"github.com/growthdesk/growthdesk/pkg/model"
	"github.com/growthdesk/growthdesk/pkg/tools"
)

// DefaultMaxIterations bounds the number of model invocations per run.
const DefaultMaxIterations = 10

// eventBuffer is the capacity of a run's event channel. The loop
// blocks when the consumer falls this far behind.
const eventBuffer = 16

// Loop is the agent control loop for one configured model.
type Loop struct {
	provider      model.Provider
	registry      *tools.Registry
	executor      *tools.Executor
	modelName     string
	maxIterations int
}

// New creates a Loop. maxIterations <= 0 selects DefaultMaxIterations.
func New(provider model.Provider, registry *tools.Registry, executor *tools.Executor, modelName string, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		provider:      provider,
		registry:      registry,
		executor:      executor,
		modelName:     modelName,
		maxIterations: maxIterations,
	}
}

// Run executes the loop for one user message on top of the given
// history. Events are delivered on the returned channel in loop order;
// the channel is closed after the terminal done or error event. The
// run stops emitting when ctx is cancelled, but an in-flight tool
// execution or model call finishes first (tool calls are pure reads).
func (l *Loop) Run(ctx context.Context, history []model.Message, userMessage string) <-chan Event {
	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
		l.run(ctx, history, userMessage, events)
	}()
	return events
}

func (l *Loop) run(ctx context.Context, history []model.Message, userMessage string, events chan<- Event) {
	messages := append(slices.Clone(history), model.Text(domain.RoleUser, userMessage))
	specs := l.registry.List()
	instructions := systemPrompt(time.Now())

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		if !emit(ctx, events, Event{
			Type:    EventThinking,
			Content: fmt.Sprintf("Iteration %d: Processing...", iteration),
		}) {
			return
		}

		msg, err := l.callModel(ctx, instructions, messages, specs)
		if err != nil {
			slog.Error("Model call failed", "iteration", iteration, "error", err)
			emit(ctx, events, Event{Type: EventError, Content: err.Error()})
			return
		}

		calls := toolCalls(msg)
		if len(calls) > 0 {
			// Keep the raw assistant turn: providers require the calls
			// echoed back alongside their results.
			messages = append(messages, msg)

			for _, call := range calls {
				if !emit(ctx, events, Event{Type: EventToolCall, ToolCall: call}) {
					return
				}
				result := l.executor.Execute(ctx, call)
				messages = append(messages, model.Message{
					Role: domain.RoleTool,
					Content: []model.Content{{
						Type:       domain.ContentTypeToolResult,
						ToolResult: result,
					}},
				})
				if !emit(ctx, events, Event{Type: EventToolResult, ToolResult: result}) {
					return
				}
			}
			continue
		}

		// No tool calls means a final answer.
		if text := messageText(msg); text != "" {
			if !emit(ctx, events, Event{Type: EventText, Content: text}) {
				return
			}
		}
		emit(ctx, events, Event{Type: EventDone, Iterations: iteration})
		return
	}

	// Ceiling reached without a plain-text answer. Partial progress may
	// still be useful, so close out gracefully rather than failing.
	slog.Warn("Iteration ceiling reached", "maxIterations", l.maxIterations)
	if !emit(ctx, events, Event{
		Type:    EventText,
		Content: fmt.Sprintf("Reached the maximum of %d reasoning steps before finishing. The answer so far may be incomplete.", l.maxIterations),
	}) {
		return
	}
	emit(ctx, events, Event{Type: EventDone, Iterations: l.maxIterations, Truncated: true})
}

func (l *Loop) callModel(ctx context.Context, instructions string, messages []model.Message, specs []domain.ToolSpec) (model.Message, error) {
	stream, err := l.provider.Stream(ctx, l.modelName, instructions, messages, specs)
	if err != nil {
		return model.Message{}, fmt.Errorf("streaming model: %w", err)
	}
	defer stream.Close()

	msg, err := stream.FullMessage()
	if err != nil {
		return model.Message{}, fmt.Errorf("getting model response: %w", err)
	}
	return msg, nil
}

// emit delivers one event, giving up when ctx is cancelled.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// toolCalls extracts the tool call requests of a message in order.
func toolCalls(msg model.Message) []*domain.ToolCall {
	var calls []*domain.ToolCall
	for _, c := range msg.Content {
		if c.Type == domain.ContentTypeToolCall && c.ToolCall != nil {
			calls = append(calls, c.ToolCall)
		}
	}
	return calls
}

// messageText concatenates the text parts of a message.
func messageText(msg model.Message) string {
	var text string
	for _, c := range msg.Content {
		if c.Type == domain.ContentTypeText {
			text += c.Text
		}
	}
	return text
}
