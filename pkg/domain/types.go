package domain

import "time"

// Session is one conversation between a user and the agent.
type Session struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is a single entry in a session's conversation history.
// Content holds plain text for user/assistant/system turns and a
// JSON-encoded ToolCall or ToolResult for tool turns.
type Turn struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        Role      `json:"role"`
	ContentType string    `json:"content_type"`
	Content     string    `json:"content"`
	AgentLabel  string    `json:"agent_label,omitempty"`
	Metadata    string    `json:"metadata,omitempty"` // JSON-encoded, opaque to the store
	Timestamp   time.Time `json:"timestamp"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult represents the outcome of a tool call execution.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Output     string `json:"output"`
	IsError    bool   `json:"is_error"`
}

// ParamSpec describes one tool parameter in the provider-facing schema.
type ParamSpec struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ParameterSchema is the provider-facing parameter contract of a tool.
// It marshals to the {type: object, properties, required} shape model
// providers expect for function declarations.
type ParameterSchema struct {
	Properties map[string]ParamSpec `json:"properties"`
	Required   []string             `json:"required"`
}

// ToolSpec advertises one callable tool to the model.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ModelInfo represents an available LLM model.
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}
