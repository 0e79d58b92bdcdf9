package nutrition

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractAppleScenario(t *testing.T) {
	raw := "Here you go:\n{\"breakdown\":[{\"item\":\"Apple\",\"calories\":95,\"protein_grams\":\"a lot\",\"carbs_grams\":25,\"fat_grams\":0}]}\nEnjoy!"

	report, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Macros{Calories: 95, ProteinGrams: 0, CarbsGrams: 25, FatGrams: 0}
	if report.Totals != want {
		t.Fatalf("totals = %#v, want %#v", report.Totals, want)
	}
	if len(report.Items) != 1 || report.Items[0].Name != "Apple" {
		t.Fatalf("unexpected items %#v", report.Items)
	}
	if got := report.Items[0].Row(); !reflect.DeepEqual(got, []string{"Apple", "95 kcal", "0g", "25g", "0g"}) {
		t.Fatalf("unexpected row %#v", got)
	}
	if report.Warning != "" {
		t.Fatalf("unexpected warning %q", report.Warning)
	}
}

func TestExtractNoObject(t *testing.T) {
	for _, raw := range []string{"I could not do it", "} backwards {", "only { open"} {
		_, err := Extract(raw)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("Extract(%q) expected ParseError, got %v", raw, err)
		}
		if perr.Raw != raw {
			t.Fatalf("expected raw text preserved, got %q", perr.Raw)
		}
		if !strings.Contains(perr.Error(), "no JSON object found") {
			t.Fatalf("unexpected message %q", perr.Error())
		}
	}
}

func TestExtractInvalidJSON(t *testing.T) {
	_, err := Extract(`{"breakdown": [1, 2,]}`)
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Err == nil {
		t.Fatalf("expected wrapped syntax error, got %v", err)
	}
}

func TestExtractIgnoresCodeFences(t *testing.T) {
	raw := "```json\n{\"breakdown\": [{\"item\": \"Pan-fried Chicken Kebabs (1 large breast)\", \"calories\": 550, \"protein_grams\": 75, \"carbs_grams\": 5, \"fat_grams\": 25}]}\n```"
	report, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := report.Items[0].Row(); !reflect.DeepEqual(got, []string{"Pan-fried Chicken Kebabs (1 large breast)", "550 kcal", "75g", "5g", "25g"}) {
		t.Fatalf("unexpected row %#v", got)
	}
}

func TestExtractWarnsOnMissingBreakdown(t *testing.T) {
	for _, raw := range []string{`{}`, `{"breakdown": []}`, `{"breakdown": "none"}`} {
		report, err := Extract(raw)
		if err != nil {
			t.Fatalf("Extract(%q): %v", raw, err)
		}
		if report.Warning != NoBreakdownWarning {
			t.Fatalf("Extract(%q) expected warning, got %q", raw, report.Warning)
		}
		if len(report.Items) != 0 || report.Totals != (Macros{}) {
			t.Fatalf("Extract(%q) expected empty report, got %#v", raw, report)
		}
	}
}

func TestExtractCoercesFields(t *testing.T) {
	raw := `{"breakdown": [
		{"item": "Rice", "calories": 200.9, "protein_grams": " 4 ", "carbs_grams": -3, "fat_grams": true},
		{"calories": null, "protein_grams": {"x": 1}, "carbs_grams": [1], "fat_grams": "2.5"},
		{"item": 7, "calories": "12", "protein_grams": 1e1}
	]}`
	report, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(report.Items) != 3 {
		t.Fatalf("expected every item kept, got %d", len(report.Items))
	}
	rice := report.Items[0]
	if rice.Macros != (Macros{Calories: 200, ProteinGrams: 4}) {
		t.Fatalf("unexpected rice macros %#v", rice.Macros)
	}
	if report.Items[1].Name != "N/A" || report.Items[1].Macros != (Macros{}) {
		t.Fatalf("unexpected second item %#v", report.Items[1])
	}
	if report.Items[2].Name != "N/A" || report.Items[2].Calories != 12 || report.Items[2].ProteinGrams != 10 {
		t.Fatalf("unexpected third item %#v", report.Items[2])
	}
	if report.Totals != (Macros{Calories: 212, ProteinGrams: 14}) {
		t.Fatalf("unexpected totals %#v", report.Totals)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	raw := `Sure! {"breakdown": [{"item": "Whopper", "calories": 670, "protein_grams": 31, "carbs_grams": 54, "fat_grams": 40}]} Hope that helps`
	first, err1 := Extract(raw)
	second, err2 := Extract(raw)
	if (err1 == nil) != (err2 == nil) || !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %#v/%v and %#v/%v", first, err1, second, err2)
	}
}
