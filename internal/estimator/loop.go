package estimator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"nutriai/internal/ai/history"
	"nutriai/internal/ai/llm"
	"nutriai/internal/ai/tools"
)

// ErrToolRoundLimit is returned when the model keeps requesting tools past
// ToolLoop.MaxRounds.
var ErrToolRoundLimit = errors.New("tool round limit reached")

// LoopStats counts the work done by one Run. Every round appends exactly two
// turns: the model's tool call and the tool results answering it.
type LoopStats struct {
	Rounds      int
	Invocations int
}

// ToolLoop drives a conversation until the model answers with something
// other than a tool call.
type ToolLoop struct {
	Registry *tools.Registry

	// StopOnUnknownTool ends the loop quietly when the model names a tool
	// that is not registered. Otherwise the model gets an error result.
	StopOnUnknownTool bool

	// MaxRounds caps tool rounds per Run. 0 means no limit.
	MaxRounds int

	Logf   func(string, ...interface{})
	Debugf func(string, ...interface{})
}

func (l *ToolLoop) logf(format string, a ...interface{}) {
	if l.Logf != nil {
		l.Logf(format, a...)
	}
}

func (l *ToolLoop) debugf(format string, a ...interface{}) {
	if l.Debugf != nil {
		l.Debugf(format, a...)
	}
}

// Run sends msg and services tool calls until the model replies without
// one. On any error the conversation is rolled back to where it was before
// msg was sent.
func (l *ToolLoop) Run(ctx context.Context, conv *Conversation, msg llm.Message) (llm.Message, LoopStats, error) {
	var stats LoopStats
	start := conv.Len()

	resp, err := conv.Send(ctx, msg)
	if err != nil {
		return nil, stats, err
	}
	l.debugTurn(conv, stats.Rounds)

	for llm.FirstPartIsToolCall(resp) {
		if l.MaxRounds > 0 && stats.Rounds >= l.MaxRounds {
			conv.truncate(start)
			return resp, stats, fmt.Errorf("%w after %d round(s)", ErrToolRoundLimit, stats.Rounds)
		}

		calls := resp.GetToolCalls()
		if l.StopOnUnknownTool {
			if name, ok := l.firstUnknown(calls); ok {
				l.logf("✖ unable to use %s: tool not registered", name)
				l.debugf("stopping tool loop on unregistered tool %q", name)
				return resp, stats, nil
			}
		}

		results := make([]llm.ToolResult, 0, len(calls))
		for _, call := range calls {
			results = append(results, l.dispatch(ctx, call))
			stats.Invocations++
		}
		stats.Rounds++

		resp, err = conv.Send(ctx, history.NewToolResultMessage(results...))
		if err != nil {
			conv.truncate(start)
			return nil, stats, err
		}
		l.debugTurn(conv, stats.Rounds)
	}

	return resp, stats, nil
}

func (l *ToolLoop) firstUnknown(calls []llm.ToolCall) (string, bool) {
	for _, call := range calls {
		if !l.registered(call.GetName()) {
			return call.GetName(), true
		}
	}
	return "", false
}

func (l *ToolLoop) registered(name string) bool {
	if l.Registry == nil {
		return false
	}
	_, ok := l.Registry.Lookup(name)
	return ok
}

// dispatch executes one call. Failures become result text for the model.
func (l *ToolLoop) dispatch(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	name := call.GetName()
	result := llm.ToolResult{ID: call.GetID(), Name: name}

	if !l.registered(name) {
		l.logf("✖ unable to use %s: tool not registered", name)
		result.Payload = fmt.Sprintf("Error: tool %q is not registered", name)
		return result
	}

	args := call.GetArguments()
	if label := formatToolArgs(args); label != "" {
		l.logf("▶ %s %s", name, label)
	} else {
		l.logf("▶ %s", name)
	}

	res, err := l.Registry.Call(ctx, name, args)
	if err != nil {
		l.logf("✖ %s → %v", name, err)
		result.Payload = fmt.Sprintf("Error executing %s: %v", name, err)
		return result
	}
	l.logf("✔ %s → %s", name, truncateForLog(res.Text, 256))
	result.Payload = res.Text
	return result
}

func (l *ToolLoop) debugTurn(conv *Conversation, round int) {
	in, out := conv.Usage()
	l.debugf("llm turn after round %d: history=%d prompt_tokens=%d completion_tokens=%d", round, conv.Len(), in, out)
}

func formatToolArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, fmt.Sprint(args[k])))
	}
	return strings.Join(parts, " ")
}

func truncateForLog(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
