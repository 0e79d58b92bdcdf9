package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/unicode/norm"

	"nutriai/internal/estimator"
	"nutriai/internal/nutrition"
)

var (
	estimateJSON bool
	assumeYes    bool

	estimateCmd = &cobra.Command{
		Use:   "estimate <photo>",
		Short: "Estimate the calories and macros of a meal photo",
		Long: `Upload a JPEG or PNG meal photo, let the model analyze it, answer its
questions, then type /done to get the breakdown.

Commands during the conversation:
  /done     calculate the final estimate
  /history  show the conversation so far
  /reset    discard this session and start over
  /quit     leave without an estimate

When stdin is not a terminal every line is sent as a refinement and end of
input calculates the estimate.`,
		Args:         cobra.ExactArgs(1),
		RunE:         runEstimate,
		SilenceUsage: true,
	}
)

func init() {
	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "print the final report as JSON")
	estimateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "analyze without asking for confirmation")
	RootCmd.AddCommand(estimateCmd)
}

type action int

const (
	actionFinalize action = iota
	actionReset
	actionQuit
)

// lineSource yields refinement input one line at a time.
type lineSource interface {
	Next() (string, error)
	Close() error
}

var errInterrupted = errors.New("interrupted")

type readlineSource struct {
	rl *readline.Instance
}

func newReadlineSource() (*readlineSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you ▶ ",
		InterruptPrompt: "^C",
		EOFPrompt:       "/done",
	})
	if err != nil {
		return nil, err
	}
	return &readlineSource{rl: rl}, nil
}

func (r *readlineSource) Next() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", errInterrupted
	}
	return line, err
}

func (r *readlineSource) Close() error {
	return r.rl.Close()
}

type scannerSource struct {
	sc *bufio.Scanner
}

func newScannerSource(r io.Reader) *scannerSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scannerSource{sc: sc}
}

func (s *scannerSource) Next() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scannerSource) Close() error {
	return nil
}

// estimateRun holds the terminal side of one `estimate` invocation.
type estimateRun struct {
	ctrl        *estimator.Controller
	out         io.Writer
	interactive bool
	jsonOutput  bool

	// prompts are swapped out in tests
	confirm     func(message string) (bool, error)
	chooseAgain func() (bool, string, error)
	openSource  func() (lineSource, error)
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runEstimate(cmd *cobra.Command, args []string) error {
	photo := args[0]
	data, err := os.ReadFile(photo)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}

	mp, sp, err := loadProfiles()
	if err != nil {
		return err
	}
	provider, err := newProvider(mp)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(sp)
	if err != nil {
		return err
	}
	reg, err := newRegistry(searcher)
	if err != nil {
		return err
	}

	logAI("Ready with profile %s (%s via %s, search via %s)", profileNameOrDefault(mp.Name), mp.Model, mp.Provider, sp.Provider)
	debugAI("max_tool_rounds=%d stop_on_unknown_tool=%v timeout=%s", maxToolRounds, stopOnUnknownTool, requestTimeout)

	ctrl := estimator.NewController(provider, reg, estimator.Options{
		MaxToolRounds:     maxToolRounds,
		StopOnUnknownTool: stopOnUnknownTool,
		Logf:              logAI,
		Debugf:            debugAI,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	interactive := isInteractive()
	run := &estimateRun{
		ctrl:        ctrl,
		out:         cmd.OutOrStdout(),
		interactive: interactive,
		jsonOutput:  estimateJSON,
		confirm:     surveyConfirm,
		chooseAgain: surveyStartOver,
	}
	if interactive {
		run.openSource = func() (lineSource, error) { return newReadlineSource() }
	} else {
		stdin := newScannerSource(cmd.InOrStdin())
		run.openSource = func() (lineSource, error) { return stdin, nil }
	}
	return run.Run(ctx, data)
}

// Run drives the controller from upload to results, looping on "start over".
func (r *estimateRun) Run(ctx context.Context, photo []byte) error {
	for {
		if err := r.ctrl.Upload(photo); err != nil {
			return err
		}
		debugAI("session %s started", r.ctrl.Session().ID)

		if r.interactive && !assumeYes {
			ok, err := r.confirm("Analyze this meal?")
			if err != nil || !ok {
				return err
			}
		}

		reply, err := r.exchange(ctx, r.ctrl.Analyze)
		if err != nil {
			return fmt.Errorf("analyze photo: %w", err)
		}
		r.say(reply)

		next, err := r.converse(ctx)
		if err != nil {
			return err
		}
		switch next {
		case actionQuit:
			return nil
		case actionReset:
			r.ctrl.Reset()
			continue
		}

		if _, err := r.exchange(ctx, r.ctrl.Finalize); err != nil {
			return fmt.Errorf("final estimate: %w", err)
		}
		if err := r.showResults(); err != nil {
			return err
		}

		if !r.interactive {
			return nil
		}
		again, path, err := r.chooseAgain()
		if err != nil || !again {
			return err
		}
		if path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}
			photo = data
		}
		r.ctrl.Reset()
	}
}

// converse reads refinements until the user asks for the estimate.
func (r *estimateRun) converse(ctx context.Context) (action, error) {
	src, err := r.openSource()
	if err != nil {
		return actionQuit, err
	}
	defer src.Close()

	for {
		line, err := src.Next()
		switch {
		case errors.Is(err, io.EOF):
			return actionFinalize, nil
		case errors.Is(err, errInterrupted):
			return actionQuit, nil
		case err != nil:
			return actionQuit, err
		}

		line = norm.NFC.String(strings.TrimSpace(line))
		switch strings.ToLower(line) {
		case "":
			continue
		case "/done":
			return actionFinalize, nil
		case "/reset":
			return actionReset, nil
		case "/quit", "/exit":
			return actionQuit, nil
		case "/history":
			renderTranscript(r.out, r.ctrl.Transcript())
			continue
		}

		reply, err := r.exchange(ctx, func(ctx context.Context) (string, error) {
			return r.ctrl.Refine(ctx, line)
		})
		if err != nil {
			if ctx.Err() != nil {
				return actionQuit, ctx.Err()
			}
			logAI("✖ %v", err)
			continue
		}
		r.say(reply)
	}
}

func (r *estimateRun) showResults() error {
	report, err := r.ctrl.Report()
	var perr *nutrition.ParseError
	if errors.As(err, &perr) {
		renderParseError(r.out, perr)
		return nil
	}
	if err != nil {
		return err
	}
	if r.jsonOutput {
		return renderReportJSON(r.out, report)
	}
	fmt.Fprintln(r.out, "Here is your detailed nutritional estimate:")
	renderReport(r.out, report)
	return nil
}

// exchange bounds one model action by --timeout.
func (r *estimateRun) exchange(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}
	reply, err := fn(ctx)
	if stats := r.ctrl.LastStats(); stats.Rounds > 0 {
		debugAI("tool rounds=%d invocations=%d", stats.Rounds, stats.Invocations)
	}
	return reply, err
}

func (r *estimateRun) say(reply string) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return
	}
	fmt.Fprintf(r.out, "Nutri-AI ▶ %s\n", reply)
}

func surveyConfirm(message string) (bool, error) {
	ok := true
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

const (
	startOverLabel = "Start over with another photo"
	quitLabel      = "Quit"
)

func surveyStartOver() (bool, string, error) {
	var choice string
	if err := survey.AskOne(&survey.Select{
		Message: "What next?",
		Options: []string{startOverLabel, quitLabel},
		Default: quitLabel,
	}, &choice); err != nil {
		return false, "", err
	}
	if choice != startOverLabel {
		return false, "", nil
	}

	var path string
	if err := survey.AskOne(&survey.Input{
		Message: "Path to the meal photo",
	}, &path, survey.WithValidator(survey.Required)); err != nil {
		return false, "", err
	}
	return true, strings.TrimSpace(path), nil
}
