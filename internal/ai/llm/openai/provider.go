package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"nutriai/internal/ai/llm"
)

const DefaultModel = "gpt-4o"

type Provider struct {
	client       *Client
	model        string
	systemPrompt string
	maxTokens    int
	debugf       func(string)
}

func NewProvider(apiKey, baseURL, model, systemPrompt string, maxTokens int) *Provider {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Provider{
		client:       NewClient(apiKey, baseURL),
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
	}
}

func (p *Provider) SetSystemPrompt(prompt string) {
	p.systemPrompt = prompt
}

func (p *Provider) SetDebugLogger(fn func(string)) {
	p.debugf = fn
}

func (p *Provider) debug(format string, a ...interface{}) {
	if p.debugf != nil {
		p.debugf(fmt.Sprintf(format, a...))
	}
}

func (p *Provider) CreateMessage(ctx context.Context, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	req := CreateRequest{
		Model:     p.model,
		Messages:  p.convertHistory(history),
		Tools:     convertTools(tools),
		MaxTokens: p.maxTokens,
	}

	p.debug("openai request model=%s messages=%d tools=%d", p.model, len(req.Messages), len(req.Tools))
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	choice := resp.Choices[0]
	msg := &Message{
		role:             llm.RoleModel,
		promptTokens:     resp.Usage.PromptTokens,
		completionTokens: resp.Usage.CompletionTokens,
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.parts = append(msg.parts, llm.Part{
			Type: llm.PartToolCall,
			ToolCall: &ToolCallWrapper{
				id:   tc.ID,
				name: tc.Function.Name,
				args: decodeArguments(tc.Function.Arguments),
			},
		})
	}
	// Tool calls lead so the loop sees them as the opening part.
	if choice.Message.Content != nil && *choice.Message.Content != "" {
		msg.parts = append(msg.parts, llm.Part{Type: llm.PartText, Text: *choice.Message.Content})
	}
	p.debug("openai response finish=%s tool_calls=%d prompt_tokens=%d completion_tokens=%d",
		choice.FinishReason, len(choice.Message.ToolCalls), msg.promptTokens, msg.completionTokens)
	return msg, nil
}

func (p *Provider) convertHistory(history []llm.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+1)
	if strings.TrimSpace(p.systemPrompt) != "" {
		out = append(out, ChatMessage{Role: "system", Content: p.systemPrompt})
	}

	for _, msg := range history {
		if msg == nil {
			continue
		}
		switch msg.GetRole() {
		case llm.RoleTool:
			for _, part := range msg.GetParts() {
				if part.Type != llm.PartToolResult || part.ToolResult == nil {
					continue
				}
				out = append(out, ChatMessage{
					Role:       "tool",
					Content:    part.ToolResult.Payload,
					ToolCallID: part.ToolResult.ID,
				})
			}
		case llm.RoleModel:
			cm := ChatMessage{Role: "assistant"}
			var text strings.Builder
			for _, part := range msg.GetParts() {
				switch part.Type {
				case llm.PartText:
					text.WriteString(part.Text)
				case llm.PartToolCall:
					if part.ToolCall == nil {
						continue
					}
					args, _ := json.Marshal(part.ToolCall.GetArguments())
					cm.ToolCalls = append(cm.ToolCalls, ToolCall{
						ID:   part.ToolCall.GetID(),
						Type: "function",
						Function: FunctionCall{
							Name:      part.ToolCall.GetName(),
							Arguments: string(args),
						},
					})
				}
			}
			if text.Len() > 0 {
				cm.Content = text.String()
			}
			out = append(out, cm)
		default:
			out = append(out, ChatMessage{Role: "user", Content: userContent(msg.GetParts())})
		}
	}
	return out
}

func userContent(parts []llm.Part) interface{} {
	hasImage := false
	for _, part := range parts {
		if part.Type == llm.PartImage && part.Image != nil {
			hasImage = true
			break
		}
	}
	if !hasImage {
		var b strings.Builder
		for _, part := range parts {
			if part.Type == llm.PartText {
				b.WriteString(part.Text)
			}
		}
		return b.String()
	}

	content := make([]ContentPart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case llm.PartText:
			if part.Text != "" {
				content = append(content, ContentPart{Type: "text", Text: part.Text})
			}
		case llm.PartImage:
			if part.Image == nil {
				continue
			}
			uri := "data:" + part.Image.MimeType + ";base64," + base64.StdEncoding.EncodeToString(part.Image.Data)
			content = append(content, ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: uri}})
		}
	}
	return content
}

func convertTools(tools []llm.Tool) []Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, Tool{
			Type: "function",
			Function: FunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

type Message struct {
	role             string
	parts            []llm.Part
	promptTokens     int
	completionTokens int
}

func (m *Message) GetRole() string {
	return m.role
}

func (m *Message) GetParts() []llm.Part {
	return m.parts
}

func (m *Message) GetContent() string {
	var b strings.Builder
	for _, p := range m.parts {
		if p.Type == llm.PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func (m *Message) GetToolCalls() []llm.ToolCall {
	var calls []llm.ToolCall
	for _, p := range m.parts {
		if p.Type == llm.PartToolCall && p.ToolCall != nil {
			calls = append(calls, p.ToolCall)
		}
	}
	return calls
}

func (m *Message) GetUsage() (int, int) {
	return m.promptTokens, m.completionTokens
}

// ToolCallWrapper exposes a decoded chat completion tool call.
type ToolCallWrapper struct {
	id   string
	name string
	args map[string]interface{}
}

func (t *ToolCallWrapper) GetID() string {
	return t.id
}

func (t *ToolCallWrapper) GetName() string {
	return t.name
}

func (t *ToolCallWrapper) GetArguments() map[string]interface{} {
	return t.args
}
