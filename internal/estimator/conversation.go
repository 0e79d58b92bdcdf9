package estimator

import (
	"context"
	"fmt"

	"nutriai/internal/ai/history"
	"nutriai/internal/ai/llm"
)

// Conversation is an append-only exchange with the model.
type Conversation struct {
	provider llm.Provider
	tools    []llm.Tool
	history  []llm.Message

	promptTokens     int
	completionTokens int
}

func NewConversation(provider llm.Provider, tools []llm.Tool) *Conversation {
	return &Conversation{provider: provider, tools: tools}
}

// Send appends msg, asks the model for the next turn and records it. On
// failure msg is removed again and history is left as it was.
func (c *Conversation) Send(ctx context.Context, msg llm.Message) (llm.Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("send: nil message")
	}
	n := len(c.history)
	c.history = append(c.history, msg)

	resp, err := c.provider.CreateMessage(ctx, c.History(), c.tools)
	if err != nil {
		c.truncate(n)
		return nil, err
	}
	if resp == nil {
		c.truncate(n)
		return nil, fmt.Errorf("model returned an empty turn")
	}

	in, out := resp.GetUsage()
	c.promptTokens += in
	c.completionTokens += out

	turn := history.CloneModelMessage(resp)
	c.history = append(c.history, turn)
	return turn, nil
}

// History returns a copy of the recorded turns.
func (c *Conversation) History() []llm.Message {
	return append([]llm.Message(nil), c.history...)
}

// Usage reports the prompt and completion tokens spent so far.
func (c *Conversation) Usage() (int, int) {
	return c.promptTokens, c.completionTokens
}

func (c *Conversation) Len() int {
	return len(c.history)
}

func (c *Conversation) truncate(n int) {
	if n < len(c.history) {
		for i := n; i < len(c.history); i++ {
			c.history[i] = nil
		}
		c.history = c.history[:n]
	}
}
