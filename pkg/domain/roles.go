package domain

// Role defines the sender of a conversation turn.
type Role string

const (
	// RoleSystem indicates fixed instructions, set once per conversation.
	RoleSystem Role = "system"
	// RoleUser indicates a message from the user.
	RoleUser Role = "user"
	// RoleAssistant indicates model output, optionally carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool indicates a tool result correlated to a prior tool call.
	RoleTool Role = "tool"
)

// Turn content types.
const (
	ContentTypeText       = "text"
	ContentTypeToolCall   = "tool_call"
	ContentTypeToolResult = "tool_result"
)
