package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/growthdesk/growthdesk/pkg/domain"
	"github.com/growthdesk/growthdesk/pkg/metrics"
)

// ErrorCode classifies a tool-level failure.
type ErrorCode string

const (
	ErrUnknownTool      ErrorCode = "unknown_tool"
	ErrNotFound         ErrorCode = "not_found"
	ErrInvalidArguments ErrorCode = "invalid_arguments"
	ErrInternal         ErrorCode = "internal_error"
)

// Error is a tool-level failure. It is serialized into the tool result
// so the model can read it and self-correct; it never propagates as a
// Go error past the executor.
type Error struct {
	Code            ErrorCode
	Message         string
	AvailableEvents []string
}

func notFound(msg string, available []string) *Error {
	return &Error{Code: ErrNotFound, Message: msg, AvailableEvents: available}
}

func invalidArguments(format string, args ...any) *Error {
	return &Error{Code: ErrInvalidArguments, Message: fmt.Sprintf(format, args...)}
}

// errorPayload is the wire shape of a tool-level failure.
type errorPayload struct {
	Error           string    `json:"error"`
	Code            ErrorCode `json:"code"`
	AvailableEvents []string  `json:"available_events,omitempty"`
}

// rawOutput marks handler output that is already serialized and must
// not be JSON-encoded again.
type rawOutput string

// Executor validates tool arguments and runs the corresponding metric
// store query. All failures come back as structured result payloads.
type Executor struct {
	registry *Registry
	store    *metrics.Store
}

// NewExecutor creates an Executor dispatching through the registry.
func NewExecutor(registry *Registry, store *metrics.Store) *Executor {
	return &Executor{registry: registry, store: store}
}

// Execute runs one tool call and returns its result. The result is
// always well-formed: unknown tools, bad arguments and lookup misses
// produce an error payload with IsError set, never a Go error.
func (e *Executor) Execute(ctx context.Context, call *domain.ToolCall) *domain.ToolResult {
	def, ok := e.registry.lookup(call.Name)
	if !ok {
		return e.errorResult(call, &Error{
			Code:    ErrUnknownTool,
			Message: fmt.Sprintf("Unknown tool: %s", call.Name),
		})
	}

	payload, terr := def.handler(e, arguments(call.Args))
	if terr != nil {
		return e.errorResult(call, terr)
	}

	if raw, ok := payload.(rawOutput); ok {
		return &domain.ToolResult{ToolCallID: call.ID, Name: call.Name, Output: string(raw)}
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		// Not a lookup miss: a not_found code here would send the model
		// off retrying event names.
		return e.errorResult(call, &Error{
			Code:    ErrInternal,
			Message: fmt.Sprintf("Tool execution failed: %v", err),
		})
	}
	return &domain.ToolResult{ToolCallID: call.ID, Name: call.Name, Output: string(out)}
}

func (e *Executor) errorResult(call *domain.ToolCall, terr *Error) *domain.ToolResult {
	out, _ := json.MarshalIndent(errorPayload{
		Error:           terr.Message,
		Code:            terr.Code,
		AvailableEvents: terr.AvailableEvents,
	}, "", "  ")
	return &domain.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Output:     string(out),
		IsError:    true,
	}
}

// arguments is the untyped bag of model-supplied parameters. Access is
// lenient: a malformed optional value reads as absent rather than
// failing the whole call, so a minor model mistake does not derail the
// conversation. Required parameters are checked by each handler.
type arguments map[string]any

// stringArg returns a non-empty string value for key.
func (a arguments) stringArg(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intArg coerces a numeric value for key. JSON numbers arrive as
// float64; json.Number and integer strings are also accepted.
func (a arguments) intArg(key string) (int, bool) {
	switch v := a[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// dateArg returns a YYYY-MM-DD value for key. Malformed values read as
// absent (lenient policy for optional filters).
func (a arguments) dateArg(key string) (string, bool) {
	s, ok := a.stringArg(key)
	if !ok || !validDate(s) {
		return "", false
	}
	return s, true
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// requiredDate returns the value for key or an invalid_arguments error
// when it is missing or not a YYYY-MM-DD date.
func (a arguments) requiredDate(key string) (string, *Error) {
	s, ok := a.stringArg(key)
	if !ok {
		return "", invalidArguments("Missing required parameter: %s", key)
	}
	if !validDate(s) {
		return "", invalidArguments("Parameter %s must be a YYYY-MM-DD date, got %q", key, s)
	}
	return s, nil
}

// requiredString returns the value for key or an invalid_arguments
// error when missing.
func (a arguments) requiredString(key string) (string, *Error) {
	s, ok := a.stringArg(key)
	if !ok {
		return "", invalidArguments("Missing required parameter: %s", key)
	}
	return s, nil
}
