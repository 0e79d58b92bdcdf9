package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"nutriai/internal/ai/tools"
)

// ToolName is the function name the model uses to request a web search.
const ToolName = "perform_web_search"

const toolDescription = "Performs a web search to find nutritional information for specific food items, " +
	"especially branded or restaurant items. Use this to find calorie counts, macronutrient breakdowns " +
	"(protein, carbs, fat), and average weights or serving sizes. For example: 'calories in Burger King Whopper' " +
	"or 'average weight of a Walmart Great Value chicken breast'."

// Record is one normalized search hit handed to the model.
type Record struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Searcher issues a single search request.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Record, error)
}

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query is required")

// PerformWebSearch runs one search and always returns text: a JSON array of
// records on success, or an error description the model can read.
func PerformWebSearch(ctx context.Context, s Searcher, query string, logf func(string, ...interface{})) string {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return errorText(ErrEmptyQuery)
	}
	if s == nil {
		return errorText(errors.New("no search backend configured"))
	}

	logf("Performing search for: %s", query)
	records, err := safeSearch(ctx, s, query)
	if err != nil {
		logf("Error during search: %v", err)
		return errorText(err)
	}
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		logf("Error during search: %v", err)
		return errorText(err)
	}
	return string(data)
}

func safeSearch(ctx context.Context, s Searcher, query string) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	return s.Search(ctx, query)
}

func errorText(err error) string {
	return fmt.Sprintf("Error performing search: %v", err)
}

// Definition describes the search tool for the registry.
func Definition() tools.Definition {
	return tools.Definition{
		Name:        ToolName,
		Description: toolDescription,
		Parameters: []tools.Parameter{
			{
				Name:        "query",
				Type:        tools.ParamString,
				Description: "The precise search query string.",
				Required:    true,
			},
		},
	}
}

// Handler adapts a Searcher to a registry handler. Failures are reported in
// the result text, never as errors.
func Handler(s Searcher, logf func(string, ...interface{})) tools.Handler {
	return func(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
		query := mcp.ExtractString(args, "query")
		return tools.Result{Text: PerformWebSearch(ctx, s, query, logf)}, nil
	}
}

// Register adds the search tool to the registry.
func Register(reg *tools.Registry, s Searcher, logf func(string, ...interface{})) error {
	return reg.Register(Definition(), Handler(s, logf))
}
