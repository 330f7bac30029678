package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/growthdesk/growthdesk/pkg/agent"
)

// frame is the wire-level encoding of one agent event. Exactly one of
// the optional members is populated depending on Type.
type frame struct {
	Type      string         `json:"type"`
	Content   any            `json:"content,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Result    string         `json:"result,omitempty"`
	ID        string         `json:"id,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
}

// sseWriter frames JSON payloads as server-sent events, flushing each
// frame as soon as it is produced.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares the response for event streaming.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeFrame emits one `data: <json>` frame and flushes it.
func (s *sseWriter) writeFrame(f frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeDone emits the end-of-stream sentinel. Every stream closes with
// this frame, error or not, so clients never hang waiting for more.
func (s *sseWriter) writeDone() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

// encodeEvent translates an agent event into its wire frame. The done
// event carries no frame of its own; the session frame and sentinel
// follow it.
func encodeEvent(ev agent.Event) (frame, bool) {
	switch ev.Type {
	case agent.EventThinking:
		return frame{Type: "thinking", Content: ev.Content}, true
	case agent.EventToolCall:
		return frame{
			Type: "tool_call",
			Tool: ev.ToolCall.Name,
			Args: ev.ToolCall.Args,
			ID:   ev.ToolCall.ID,
		}, true
	case agent.EventToolResult:
		return frame{
			Type:   "tool_result",
			Tool:   ev.ToolResult.Name,
			Result: resultPreview(ev.ToolResult.Output),
			ID:     ev.ToolResult.ToolCallID,
		}, true
	case agent.EventText:
		return frame{Type: "text", Content: ev.Content}, true
	case agent.EventError:
		return frame{Type: "error", Content: ev.Content}, true
	default:
		return frame{}, false
	}
}

// resultPreview narrows a serialized tool result for display: when the
// payload is an object with a stats or summary member, that member
// stands in for the whole result. The model always receives the full
// payload; this only trims what the consumer sees.
func resultPreview(result string) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		return result
	}
	if stats, ok := parsed["stats"]; ok {
		return string(stats)
	}
	if summary, ok := parsed["summary"]; ok {
		return string(summary)
	}
	return result
}
