package estimator

import (
	"context"
	"errors"
	"strings"

	"nutriai/internal/ai/llm"
)

type fakeCall struct {
	id   string
	name string
	args map[string]interface{}
}

func (c fakeCall) GetID() string                        { return c.id }
func (c fakeCall) GetName() string                      { return c.name }
func (c fakeCall) GetArguments() map[string]interface{} { return c.args }

type fakeTurn struct {
	parts []llm.Part
}

func (m fakeTurn) GetRole() string      { return llm.RoleModel }
func (m fakeTurn) GetParts() []llm.Part { return m.parts }
func (m fakeTurn) GetContent() string {
	var b strings.Builder
	for _, p := range m.parts {
		if p.Type == llm.PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
func (m fakeTurn) GetToolCalls() []llm.ToolCall {
	var calls []llm.ToolCall
	for _, p := range m.parts {
		if p.Type == llm.PartToolCall {
			calls = append(calls, p.ToolCall)
		}
	}
	return calls
}
func (m fakeTurn) GetUsage() (int, int) { return 10, 2 }

func textTurn(text string) llm.Message {
	return fakeTurn{parts: []llm.Part{{Type: llm.PartText, Text: text}}}
}

func callTurn(calls ...fakeCall) llm.Message {
	var parts []llm.Part
	for _, c := range calls {
		parts = append(parts, llm.Part{Type: llm.PartToolCall, ToolCall: c})
	}
	return fakeTurn{parts: parts}
}

type scripted struct {
	resp llm.Message
	err  error
}

// fakeProvider replays a fixed script and records every history it is sent.
type fakeProvider struct {
	script []scripted
	seen   [][]llm.Message
}

var errScriptExhausted = errors.New("script exhausted")

func (p *fakeProvider) CreateMessage(ctx context.Context, history []llm.Message, tools []llm.Tool) (llm.Message, error) {
	p.seen = append(p.seen, history)
	if len(p.script) == 0 {
		return nil, errScriptExhausted
	}
	next := p.script[0]
	p.script = p.script[1:]
	return next.resp, next.err
}

func (p *fakeProvider) SetSystemPrompt(string) {}

func (p *fakeProvider) push(resp llm.Message) *fakeProvider {
	p.script = append(p.script, scripted{resp: resp})
	return p
}

func (p *fakeProvider) fail(err error) *fakeProvider {
	p.script = append(p.script, scripted{err: err})
	return p
}
