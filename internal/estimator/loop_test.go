package estimator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nutriai/internal/ai/history"
	"nutriai/internal/ai/llm"
	"nutriai/internal/ai/tools"
)

func searchRegistry(t *testing.T, queries *[]string, fail error) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	err := reg.Register(tools.Definition{
		Name:       "perform_web_search",
		Parameters: []tools.Parameter{{Name: "query", Type: tools.ParamString, Required: true}},
	}, func(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
		q, _ := args["query"].(string)
		*queries = append(*queries, q)
		if fail != nil {
			return tools.Result{}, fail
		}
		return tools.Result{Text: `[{"url":"https://bk.com","content":"Whopper 670 kcal"}]`}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

func lastToolResults(t *testing.T, msgs []llm.Message) []llm.ToolResult {
	t.Helper()
	msg, ok := msgs[len(msgs)-1].(*history.Message)
	if !ok || msg.GetRole() != llm.RoleTool {
		t.Fatalf("expected a tool turn last, got %#v", msgs[len(msgs)-1])
	}
	return msg.ToolResults()
}

func TestToolLoopDispatchesSearch(t *testing.T) {
	var queries []string
	reg := searchRegistry(t, &queries, nil)
	provider := (&fakeProvider{}).
		push(callTurn(fakeCall{id: "c1", name: "perform_web_search", args: map[string]interface{}{"query": "Whopper calories"}})).
		push(textTurn("A Whopper has about 670 kcal."))

	conv := NewConversation(provider, reg.LLMTools())
	loop := &ToolLoop{Registry: reg}
	resp, stats, err := loop.Run(context.Background(), conv, history.NewUserMessage("It's a Whopper"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(queries) != 1 || queries[0] != "Whopper calories" {
		t.Fatalf("adapter called with %#v", queries)
	}
	if len(provider.seen) != 2 {
		t.Fatalf("expected two model requests, got %d", len(provider.seen))
	}
	results := lastToolResults(t, provider.seen[1])
	if len(results) != 1 || results[0].Name != "perform_web_search" || results[0].ID != "c1" || !strings.Contains(results[0].Payload, "670") {
		t.Fatalf("unexpected tool results %#v", results)
	}
	if resp.GetContent() != "A Whopper has about 670 kcal." {
		t.Fatalf("unexpected reply %q", resp.GetContent())
	}
	if stats.Rounds != 1 || stats.Invocations != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	// user, tool call, tool result, answer
	if conv.Len() != 2+2*stats.Rounds {
		t.Fatalf("expected %d turns, got %d", 2+2*stats.Rounds, conv.Len())
	}
}

func TestToolLoopAnswersEveryCallInTurn(t *testing.T) {
	var queries []string
	reg := searchRegistry(t, &queries, nil)
	provider := (&fakeProvider{}).
		push(callTurn(
			fakeCall{id: "a", name: "perform_web_search", args: map[string]interface{}{"query": "bun"}},
			fakeCall{id: "b", name: "perform_web_search", args: map[string]interface{}{"query": "patty"}},
		)).
		push(textTurn("done"))

	conv := NewConversation(provider, nil)
	_, stats, err := (&ToolLoop{Registry: reg}).Run(context.Background(), conv, history.NewUserMessage("burger"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(queries, ",") != "bun,patty" {
		t.Fatalf("expected sequential dispatch in order, got %#v", queries)
	}
	results := lastToolResults(t, provider.seen[1])
	if len(results) != 2 || results[0].ID != "a" || results[1].ID != "b" {
		t.Fatalf("unexpected results %#v", results)
	}
	if stats.Rounds != 1 || stats.Invocations != 2 || conv.Len() != 4 {
		t.Fatalf("unexpected stats %#v len=%d", stats, conv.Len())
	}
}

func TestToolLoopHandlerErrorBecomesResult(t *testing.T) {
	var queries []string
	reg := searchRegistry(t, &queries, errors.New("boom"))
	provider := (&fakeProvider{}).
		push(callTurn(fakeCall{id: "c1", name: "perform_web_search", args: map[string]interface{}{"query": "x"}})).
		push(textTurn("sorry"))

	_, _, err := (&ToolLoop{Registry: reg}).Run(context.Background(), NewConversation(provider, nil), history.NewUserMessage("x"))
	if err != nil {
		t.Fatalf("handler errors must not abort the loop: %v", err)
	}
	results := lastToolResults(t, provider.seen[1])
	if results[0].Payload != "Error executing perform_web_search: boom" {
		t.Fatalf("unexpected payload %q", results[0].Payload)
	}
}

func TestToolLoopUnknownToolGetsSyntheticResult(t *testing.T) {
	provider := (&fakeProvider{}).
		push(callTurn(fakeCall{id: "c1", name: "lookup_barcode"})).
		push(textTurn("I'll estimate instead."))

	var logged []string
	loop := &ToolLoop{Registry: tools.NewRegistry(), Logf: func(f string, a ...interface{}) { logged = append(logged, f) }}
	resp, stats, err := loop.Run(context.Background(), NewConversation(provider, nil), history.NewUserMessage("x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	results := lastToolResults(t, provider.seen[1])
	if results[0].Payload != `Error: tool "lookup_barcode" is not registered` || results[0].Name != "lookup_barcode" {
		t.Fatalf("unexpected synthetic result %#v", results[0])
	}
	if resp.GetContent() != "I'll estimate instead." || stats.Rounds != 1 {
		t.Fatalf("unexpected outcome %q %#v", resp.GetContent(), stats)
	}
	if len(logged) == 0 {
		t.Fatalf("expected the unknown tool to be logged")
	}
}

func TestToolLoopStopOnUnknownTool(t *testing.T) {
	provider := (&fakeProvider{}).
		push(callTurn(fakeCall{id: "c1", name: "lookup_barcode"})).
		push(textTurn("never requested"))

	conv := NewConversation(provider, nil)
	resp, stats, err := (&ToolLoop{Registry: tools.NewRegistry(), StopOnUnknownTool: true}).Run(context.Background(), conv, history.NewUserMessage("x"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(provider.seen) != 1 {
		t.Fatalf("expected the loop to stop without another request, got %d", len(provider.seen))
	}
	if !llm.FirstPartIsToolCall(resp) || stats.Rounds != 0 || conv.Len() != 2 {
		t.Fatalf("unexpected stop state stats=%#v len=%d", stats, conv.Len())
	}
}

func TestToolLoopRoundLimit(t *testing.T) {
	var queries []string
	reg := searchRegistry(t, &queries, nil)
	call := callTurn(fakeCall{id: "c", name: "perform_web_search", args: map[string]interface{}{"query": "again"}})
	provider := (&fakeProvider{}).push(call).push(call).push(call)

	conv := NewConversation(provider, nil)
	resp, stats, err := (&ToolLoop{Registry: reg, MaxRounds: 2}).Run(context.Background(), conv, history.NewUserMessage("x"))
	if !errors.Is(err, ErrToolRoundLimit) {
		t.Fatalf("expected ErrToolRoundLimit, got %v", err)
	}
	if resp == nil || stats.Rounds != 2 || len(queries) != 2 {
		t.Fatalf("unexpected state resp=%v stats=%#v queries=%d", resp, stats, len(queries))
	}
	if conv.Len() != 0 {
		t.Fatalf("expected rollback, history has %d turns", conv.Len())
	}
}

func TestToolLoopRollsBackOnProviderFailure(t *testing.T) {
	var queries []string
	reg := searchRegistry(t, &queries, nil)
	provider := (&fakeProvider{}).
		push(textTurn("first")).
		push(callTurn(fakeCall{id: "c", name: "perform_web_search", args: map[string]interface{}{"query": "q"}})).
		fail(errors.New("503"))

	conv := NewConversation(provider, nil)
	loop := &ToolLoop{Registry: reg}
	if _, _, err := loop.Run(context.Background(), conv, history.NewUserMessage("one")); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, _, err := loop.Run(context.Background(), conv, history.NewUserMessage("two")); err == nil {
		t.Fatalf("expected provider failure")
	}
	if conv.Len() != 2 {
		t.Fatalf("expected history rolled back to 2 turns, got %d", conv.Len())
	}
}
