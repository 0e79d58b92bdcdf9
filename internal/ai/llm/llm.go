package llm

import (
	"context"
	"fmt"
)

// Conversation roles shared by every provider.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// PartType identifies the kind of content carried by a Part.
type PartType string

const (
	PartText       PartType = "text"
	PartImage      PartType = "image"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
)

// Image is raw image bytes passed opaquely to the model.
type Image struct {
	MimeType string
	Data     []byte
}

// ToolResult is the payload fed back to the model after executing a tool call.
type ToolResult struct {
	ID      string
	Name    string
	Payload string
}

// Part is one ordered content fragment of a Message. Exactly one of the
// fields matching Type is set.
type Part struct {
	Type       PartType
	Text       string
	Image      *Image
	ToolCall   ToolCall
	ToolResult *ToolResult
}

// Message is a single conversation turn.
type Message interface {
	GetRole() string
	GetParts() []Part
	GetContent() string
	GetToolCalls() []ToolCall
	GetUsage() (int, int)
}

// ToolCall is a structured request from the model to invoke a named function.
type ToolCall interface {
	GetID() string
	GetName() string
	GetArguments() map[string]interface{}
}

// Schema is the JSON schema of a tool's parameters.
type Schema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required,omitempty"`
}

// Tool is a function declaration exposed to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema Schema
}

// Provider produces the next model turn for a conversation.
type Provider interface {
	CreateMessage(ctx context.Context, history []Message, tools []Tool) (Message, error)
	SetSystemPrompt(prompt string)
}

// ErrUnsupportedProvider is returned when a profile names an unknown provider.
type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Provider)
}

// FirstPartIsToolCall reports whether the message opens with a tool call.
func FirstPartIsToolCall(msg Message) bool {
	if msg == nil {
		return false
	}
	parts := msg.GetParts()
	return len(parts) > 0 && parts[0].Type == PartToolCall && parts[0].ToolCall != nil
}
