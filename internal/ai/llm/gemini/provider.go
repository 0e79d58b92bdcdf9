package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"nutriai/internal/ai/llm"
)

const DefaultModel = "gemini-1.5-pro-latest"

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

// SetDebugLogger installs a sink for request and response summaries.
func (p *Provider) SetDebugLogger(fn func(string)) {
	p.debugf = fn
}

func (p *Provider) debug(format string, a ...interface{}) {
	if p.debugf != nil {
		p.debugf(fmt.Sprintf(format, a...))
	}
}

func (p *Provider) CreateMessage(ctx context.Context, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	req := GenerateRequest{
		Contents: convertHistory(history),
		Tools:    convertTools(tools),
	}
	if strings.TrimSpace(p.systemPrompt) != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: p.systemPrompt}}}
	}
	if p.maxTokens > 0 {
		req.GenerationConfig = &GenerationConfig{MaxOutputTokens: p.maxTokens}
	}

	p.debug("gemini request model=%s contents=%d tools=%d", p.model, len(req.Contents), len(tools))
	resp, err := p.client.GenerateContent(ctx, p.model, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("Gemini returned no candidates (blocked: %s)", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("Gemini returned no candidates")
	}

	msg := convertResponse(resp.Candidates[0].Content)
	if resp.UsageMetadata != nil {
		msg.promptTokens = resp.UsageMetadata.PromptTokenCount
		msg.completionTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	p.debug("gemini response finish=%s parts=%d prompt_tokens=%d completion_tokens=%d",
		resp.Candidates[0].FinishReason, len(msg.parts), msg.promptTokens, msg.completionTokens)
	return msg, nil
}

func convertHistory(history []llm.Message) []Content {
	contents := make([]Content, 0, len(history))
	for _, msg := range history {
		if msg == nil {
			continue
		}
		role := "user"
		if msg.GetRole() == llm.RoleModel {
			role = "model"
		}

		var parts []Part
		for _, part := range msg.GetParts() {
			switch part.Type {
			case llm.PartText:
				if part.Text != "" {
					parts = append(parts, Part{Text: part.Text})
				}
			case llm.PartImage:
				if part.Image == nil {
					continue
				}
				parts = append(parts, Part{InlineData: &Blob{
					MimeType: part.Image.MimeType,
					Data:     base64.StdEncoding.EncodeToString(part.Image.Data),
				}})
			case llm.PartToolCall:
				if part.ToolCall == nil {
					continue
				}
				parts = append(parts, Part{FunctionCall: &FunctionCall{
					Name: part.ToolCall.GetName(),
					Args: part.ToolCall.GetArguments(),
				}})
			case llm.PartToolResult:
				if part.ToolResult == nil {
					continue
				}
				parts = append(parts, Part{FunctionResponse: &FunctionResponse{
					Name:     part.ToolResult.Name,
					Response: map[string]interface{}{"content": part.ToolResult.Payload},
				}})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, Content{Role: role, Parts: parts})
	}
	return contents
}

func convertTools(tools []llm.Tool) []Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.InputSchema),
		})
	}
	return []Tool{{FunctionDeclarations: decls}}
}

func convertSchema(s llm.Schema) *Schema {
	out := &Schema{
		Type:     upperType(s.Type),
		Required: append([]string(nil), s.Required...),
	}
	if len(s.Properties) == 0 {
		return out
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	out.Properties = make(map[string]*Schema, len(names))
	for _, name := range names {
		prop := &Schema{Type: "STRING"}
		if m, ok := s.Properties[name].(map[string]interface{}); ok {
			if t, ok := m["type"].(string); ok {
				prop.Type = upperType(t)
			}
			if d, ok := m["description"].(string); ok {
				prop.Description = d
			}
			switch enum := m["enum"].(type) {
			case []string:
				prop.Enum = append([]string(nil), enum...)
			case []interface{}:
				for _, v := range enum {
					if sv, ok := v.(string); ok {
						prop.Enum = append(prop.Enum, sv)
					}
				}
			}
		}
		out.Properties[name] = prop
	}
	return out
}

func upperType(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return "OBJECT"
	}
	return t
}

func convertResponse(content Content) *Message {
	msg := &Message{role: llm.RoleModel}
	for _, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]interface{}{}
			}
			msg.parts = append(msg.parts, llm.Part{
				Type:     llm.PartToolCall,
				ToolCall: &ToolCall{id: id, name: part.FunctionCall.Name, args: args},
			})
		case part.Text != "":
			msg.parts = append(msg.parts, llm.Part{Type: llm.PartText, Text: part.Text})
		}
	}
	return msg
}

// Message is a model turn returned by Gemini.
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

type ToolCall struct {
	id   string
	name string
	args map[string]interface{}
}

func (c *ToolCall) GetID() string {
	return c.id
}

func (c *ToolCall) GetName() string {
	return c.name
}

func (c *ToolCall) GetArguments() map[string]interface{} {
	return c.args
}
