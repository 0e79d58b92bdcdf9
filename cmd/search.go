package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nutriai/internal/ai/profile"
	"nutriai/internal/search"
)

var (
	numResults int

	searchCmd = &cobra.Command{
		Use:   "search [flags] <search terms>",
		Short: "Run the nutrition web search tool once and print its output",
		Long: `Runs the same search the model uses and prints exactly what the model
would receive: a JSON array of {url, content} records, or an error string.`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runSearch,
		SilenceUsage: true,
	}
)

func init() {
	RootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&numResults, "num", "n", 0, "number of results to request (0 = backend default)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	sp, err := loadSearchProfile()
	if err != nil {
		return err
	}
	if numResults > 0 {
		sp.MaxResults = numResults
	}
	if err := profile.ValidateSearch(sp); err != nil {
		return err
	}
	searcher, err := newSearcher(sp)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	query := strings.Join(args, " ")
	fmt.Fprintln(cmd.OutOrStdout(), search.PerformWebSearch(ctx, searcher, query, debugAI))
	return nil
}
