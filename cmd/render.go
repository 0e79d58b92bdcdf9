package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"nutriai/internal/estimator"
	"nutriai/internal/nutrition"
)

var reportHeader = []string{"Item", "Calories", "Protein", "Carbs", "Fat"}

func renderReport(w io.Writer, report nutrition.Report) {
	if report.Warning != "" {
		fmt.Fprintf(w, "warning: %s\n", report.Warning)
	}
	if len(report.Items) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(reportHeader, "\t"))
		for _, item := range report.Items {
			fmt.Fprintln(tw, strings.Join(item.Row(), "\t"))
		}
		tw.Flush()
	}

	totals := report.Totals.Cells()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Calculated Totals")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Total Calories\tTotal Protein\tTotal Carbs\tTotal Fat")
	fmt.Fprintln(tw, strings.Join(totals, "\t"))
	tw.Flush()
}

func renderReportJSON(w io.Writer, report nutrition.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderParseError(w io.Writer, perr *nutrition.ParseError) {
	fmt.Fprintf(w, "Could not parse the final analysis. Error: %s\n", perr.Reason)
	if perr.Err != nil {
		fmt.Fprintf(w, "  %v\n", perr.Err)
	}
	fmt.Fprintln(w, "Raw AI response for debugging:")
	fmt.Fprintln(w, perr.Raw)
}

func renderTranscript(w io.Writer, turns []estimator.Turn) {
	for _, t := range turns {
		label := "you"
		if t.Role != "user" {
			label = "Nutri-AI"
		}
		fmt.Fprintf(w, "%s ▶ %s\n", label, t.Text)
	}
}
