// Package nutrition turns the model's final answer into a macro breakdown.
package nutrition

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// NoBreakdownWarning is reported when the answer parses but lists no items.
const NoBreakdownWarning = "The AI was unable to provide a breakdown. Please try again."

// Macros holds the four tracked values. All are non-negative.
type Macros struct {
	Calories     int `json:"calories"`
	ProteinGrams int `json:"protein_grams"`
	CarbsGrams   int `json:"carbs_grams"`
	FatGrams     int `json:"fat_grams"`
}

func (m Macros) add(o Macros) Macros {
	return Macros{
		Calories:     m.Calories + o.Calories,
		ProteinGrams: m.ProteinGrams + o.ProteinGrams,
		CarbsGrams:   m.CarbsGrams + o.CarbsGrams,
		FatGrams:     m.FatGrams + o.FatGrams,
	}
}

// Cells formats the values with their units.
func (m Macros) Cells() []string {
	return []string{
		fmt.Sprintf("%d kcal", m.Calories),
		fmt.Sprintf("%dg", m.ProteinGrams),
		fmt.Sprintf("%dg", m.CarbsGrams),
		fmt.Sprintf("%dg", m.FatGrams),
	}
}

type Item struct {
	Name string `json:"item"`
	Macros
}

// Row is the display form of an item: name followed by the formatted cells.
func (i Item) Row() []string {
	return append([]string{i.Name}, i.Macros.Cells()...)
}

type Report struct {
	Items   []Item `json:"breakdown"`
	Totals  Macros `json:"totals"`
	Warning string `json:"warning,omitempty"`
}

// ParseError means no usable JSON object could be recovered. Raw is the
// untouched model text.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse the final analysis: %s: %v", e.Reason, e.Err)
	}
	return "could not parse the final analysis: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var fields = [...]string{"calories", "protein_grams", "carbs_grams", "fat_grams"}

// Extract locates the JSON object spanning the first '{' to the last '}' of
// raw and sums its breakdown. Surrounding prose and code fences are ignored.
func Extract(raw string) (Report, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return Report{}, &ParseError{Reason: "no JSON object found", Raw: raw}
	}
	doc := raw[start : end+1]

	var probe interface{}
	if err := json.Unmarshal([]byte(doc), &probe); err != nil {
		return Report{}, &ParseError{Reason: "invalid JSON", Raw: raw, Err: err}
	}

	report := Report{Items: []Item{}}
	breakdown := gjson.Get(doc, "breakdown")
	if !breakdown.IsArray() || len(breakdown.Array()) == 0 {
		report.Warning = NoBreakdownWarning
		return report, nil
	}

	for _, entry := range breakdown.Array() {
		item := Item{Name: "N/A"}
		if name := entry.Get("item"); name.Type == gjson.String {
			item.Name = name.Str
		}
		values := [len(fields)]int{}
		for i, f := range fields {
			values[i] = coerce(entry.Get(f))
		}
		item.Macros = Macros{
			Calories:     values[0],
			ProteinGrams: values[1],
			CarbsGrams:   values[2],
			FatGrams:     values[3],
		}
		report.Items = append(report.Items, item)
		report.Totals = report.Totals.add(item.Macros)
	}
	return report, nil
}

// coerce maps a field to a non-negative integer, falling back to 0.
func coerce(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		if strings.ContainsAny(v.Raw, ".eE") {
			n := math.Trunc(v.Num)
			if n < 0 || n > math.MaxInt32 {
				return 0
			}
			return int(n)
		}
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil || n < 0 || n > math.MaxInt32 {
			return 0
		}
		return int(n)
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil || n < 0 || n > math.MaxInt32 {
			return 0
		}
		return n
	default:
		return 0
	}
}
