package tools_test

import (
	"context"
	"testing"

	"nutriai/internal/ai/tools"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"perform_web_search": "perform_web_search",
		"capture-screenshot": "capture-screenshot",
		"run js!":            "run_js_",
	}
	for in, want := range cases {
		if got := tools.SanitizeName(in); got != want {
			t.Fatalf("sanitize %q: got %q want %q", in, got, want)
		}
	}
}

func TestLLMToolsBuildsSchema(t *testing.T) {
	reg := tools.NewRegistry()
	err := reg.Register(tools.Definition{
		Name:        "perform_web_search",
		Description: "search the web",
		Parameters: []tools.Parameter{
			{Name: "query", Type: tools.ParamString, Description: "The precise search query string.", Required: true},
			{Name: "depth", Type: tools.ParamString, Enum: []string{"basic", "advanced"}},
		},
	}, func(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
		return tools.Result{}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	list := reg.LLMTools()
	if len(list) != 1 {
		t.Fatalf("expected one tool, got %d", len(list))
	}
	tool := list[0]
	if tool.Name != "perform_web_search" || tool.Description != "search the web" {
		t.Fatalf("unexpected tool %#v", tool)
	}
	if tool.InputSchema.Type != "object" {
		t.Fatalf("expected object schema, got %s", tool.InputSchema.Type)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "query" {
		t.Fatalf("unexpected required list %#v", tool.InputSchema.Required)
	}
	query, ok := tool.InputSchema.Properties["query"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing query property")
	}
	if query["type"] != "string" || query["description"] != "The precise search query string." {
		t.Fatalf("unexpected query property %#v", query)
	}
	depth := tool.InputSchema.Properties["depth"].(map[string]interface{})
	if enum, ok := depth["enum"].([]string); !ok || len(enum) != 2 {
		t.Fatalf("expected enum on depth, got %#v", depth)
	}
}
