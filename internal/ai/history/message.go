package history

import (
	"encoding/json"
	"strings"

	"nutriai/internal/ai/llm"
)

// Message is an immutable conversation turn stored in session history.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a block of content in a message
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	MimeType  string          `json:"mime_type,omitempty"`
	Data      []byte          `json:"data,omitempty"`
	ID        string          `json:"id,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
}

const (
	blockText       = "text"
	blockImage      = "image"
	blockToolUse    = "tool_use"
	blockToolResult = "tool_result"
)

func (m *Message) GetRole() string {
	return m.Role
}

func (m *Message) GetParts() []llm.Part {
	parts := make([]llm.Part, 0, len(m.Content))
	for _, block := range m.Content {
		switch block.Type {
		case blockText:
			parts = append(parts, llm.Part{Type: llm.PartText, Text: block.Text})
		case blockImage:
			parts = append(parts, llm.Part{
				Type:  llm.PartImage,
				Image: &llm.Image{MimeType: block.MimeType, Data: block.Data},
			})
		case blockToolUse:
			parts = append(parts, llm.Part{
				Type:     llm.PartToolCall,
				ToolCall: &ToolCall{id: block.ID, name: block.Name, args: block.Input},
			})
		case blockToolResult:
			parts = append(parts, llm.Part{
				Type:       llm.PartToolResult,
				ToolResult: &llm.ToolResult{ID: block.ToolUseID, Name: block.Name, Payload: block.Text},
			})
		}
	}
	return parts
}

// GetContent concatenates all text blocks.
func (m *Message) GetContent() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == blockText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func (m *Message) GetToolCalls() []llm.ToolCall {
	var calls []llm.ToolCall
	for _, block := range m.Content {
		if block.Type == blockToolUse {
			calls = append(calls, &ToolCall{
				id:   block.ID,
				name: block.Name,
				args: block.Input,
			})
		}
	}
	return calls
}

// ToolResults returns the tool results carried by a tool turn.
func (m *Message) ToolResults() []llm.ToolResult {
	var results []llm.ToolResult
	for _, block := range m.Content {
		if block.Type == blockToolResult {
			results = append(results, llm.ToolResult{ID: block.ToolUseID, Name: block.Name, Payload: block.Text})
		}
	}
	return results
}

func (m *Message) GetUsage() (int, int) {
	return 0, 0 // History doesn't track usage
}

// NewUserMessage creates a user turn with a text part followed by any images.
func NewUserMessage(text string, images ...llm.Image) *Message {
	m := &Message{Role: llm.RoleUser}
	if text != "" {
		m.Content = append(m.Content, ContentBlock{Type: blockText, Text: text})
	}
	for _, img := range images {
		m.Content = append(m.Content, ContentBlock{
			Type:     blockImage,
			MimeType: img.MimeType,
			Data:     append([]byte(nil), img.Data...),
		})
	}
	return m
}

// NewToolResultMessage creates a tool turn answering one or more tool calls.
func NewToolResultMessage(results ...llm.ToolResult) *Message {
	m := &Message{Role: llm.RoleTool}
	for _, res := range results {
		m.Content = append(m.Content, ContentBlock{
			Type:      blockToolResult,
			ToolUseID: res.ID,
			Name:      res.Name,
			Text:      res.Payload,
		})
	}
	return m
}

// CloneModelMessage converts a provider message into a history entry,
// preserving the order of its parts.
func CloneModelMessage(msg llm.Message) *Message {
	if msg == nil {
		return nil
	}
	role := msg.GetRole()
	if role == "" {
		role = llm.RoleModel
	}
	h := &Message{Role: role}

	for _, part := range msg.GetParts() {
		switch part.Type {
		case llm.PartText:
			if part.Text == "" {
				continue
			}
			h.Content = append(h.Content, ContentBlock{Type: blockText, Text: part.Text})
		case llm.PartImage:
			if part.Image == nil {
				continue
			}
			h.Content = append(h.Content, ContentBlock{
				Type:     blockImage,
				MimeType: part.Image.MimeType,
				Data:     append([]byte(nil), part.Image.Data...),
			})
		case llm.PartToolCall:
			call := part.ToolCall
			if call == nil {
				continue
			}
			data, _ := json.Marshal(call.GetArguments())
			h.Content = append(h.Content, ContentBlock{
				Type: blockToolUse,
				ID:   call.GetID(),
				Name: call.GetName(),
				Input: func() json.RawMessage {
					if len(data) == 0 {
						return nil
					}
					return data
				}(),
			})
		case llm.PartToolResult:
			if part.ToolResult == nil {
				continue
			}
			h.Content = append(h.Content, ContentBlock{
				Type:      blockToolResult,
				ToolUseID: part.ToolResult.ID,
				Name:      part.ToolResult.Name,
				Text:      part.ToolResult.Payload,
			})
		}
	}
	return h
}

// instructionMarker prefixes turns that carry operator instructions rather
// than user conversation.
const instructionMarker = "// system"

// IsInstructionTurn reports whether the first text part of msg is an
// instruction block that should stay hidden from the transcript.
func IsInstructionTurn(msg llm.Message) bool {
	if msg == nil {
		return false
	}
	for _, part := range msg.GetParts() {
		if part.Type != llm.PartText {
			continue
		}
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(part.Text)), instructionMarker)
	}
	return false
}

// ToolCall implements llm.ToolCall for stored tool calls
type ToolCall struct {
	id   string
	name string
	args json.RawMessage
}

func (t *ToolCall) GetID() string {
	return t.id
}

func (t *ToolCall) GetName() string {
	return t.name
}

func (t *ToolCall) GetArguments() map[string]interface{} {
	var args map[string]interface{}
	if err := json.Unmarshal(t.args, &args); err != nil || args == nil {
		return make(map[string]interface{})
	}
	return args
}
