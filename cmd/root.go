package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nutriai/internal/ai/profile"
)

var (
	Verbose           bool
	modelProfileFlag  string
	searchProvider    string
	maxToolRounds     int
	stopOnUnknownTool bool
	requestTimeout    time.Duration
)

var RootCmd = &cobra.Command{
	Use:   "nutriai",
	Short: "Estimate the nutrition of a meal from a photo",
	Long: `nutriai sends a meal photo to a multimodal model, lets you refine the
details in a short conversation while the model looks up branded or
restaurant items on the web, and finally prints a calorie and macro
breakdown with totals.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.BoolVarP(&Verbose, "verbose", "v", false, "print debug output to stderr")
	flags.StringVarP(&modelProfileFlag, "model", "m", "", "model profile to use (defaults to config or environment)")
	flags.StringVar(&searchProvider, "search-provider", "", "web search backend: tavily or duckduckgo")
	flags.IntVar(&maxToolRounds, "max-tool-rounds", 0, "maximum tool rounds per model exchange (0 = unlimited)")
	flags.BoolVar(&stopOnUnknownTool, "stop-on-unknown-tool", false, "stop quietly when the model asks for an unregistered tool")
	flags.DurationVar(&requestTimeout, "timeout", 0, "timeout for each model exchange (0 = none)")
}

const configHelp = `API keys are not configured.
Set GEMINI_API_KEY (or OPENAI_API_KEY for an openai profile) and TAVILY_API_KEY,
or define them in the profiles.json file of the nutriai config directory.`

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		var cfgErr *profile.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, configHelp)
			debugAI("%v", cfgErr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
