package agent

import "github.com/growthdesk/growthdesk/pkg/domain"

// EventType tags one unit of the streaming protocol.
type EventType string

const (
	// EventThinking marks loop progress before a model call.
	EventThinking EventType = "thinking"
	// EventToolCall reports a tool invocation requested by the model.
	EventToolCall EventType = "tool_call"
	// EventToolResult reports the outcome of a tool invocation.
	EventToolResult EventType = "tool_result"
	// EventText carries the model's final plain-text answer.
	EventText EventType = "text"
	// EventError reports a terminal provider failure.
	EventError EventType = "error"
	// EventDone closes the sequence.
	EventDone EventType = "done"
)

// Event is the externally visible projection of one loop step. Within
// a run, events are totally ordered: a tool_call always precedes its
// tool_result, text arrives only after all tool calls of the same
// model turn have resolved, and exactly one done or error event is
// terminal.
type Event struct {
	Type       EventType
	Content    string             // thinking, text, error
	ToolCall   *domain.ToolCall   // tool_call
	ToolResult *domain.ToolResult // tool_result
	Iterations int                // done
	Truncated  bool               // done, when the iteration ceiling was hit
}
