package estimator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutriai/internal/ai/history"
	"nutriai/internal/ai/llm"
	"nutriai/internal/ai/tools"
	"nutriai/internal/nutrition"
)

var (
	// ErrWrongStage is wrapped by every StageError.
	ErrWrongStage = errors.New("action not available in the current stage")
	// ErrUnsupportedImage rejects uploads that are neither JPEG nor PNG.
	ErrUnsupportedImage = errors.New("unsupported image: upload a JPEG or PNG photo")
	// ErrEmptyInput rejects blank refinement text.
	ErrEmptyInput = errors.New("refinement text cannot be empty")
)

// StageError reports an action attempted in a stage that does not offer it.
// The session is left untouched.
type StageError struct {
	Action string
	Stage  Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s is not available during %s", ErrWrongStage, e.Action, e.Stage)
}

func (e *StageError) Unwrap() error {
	return ErrWrongStage
}

// Options tunes the tool loop used for every model exchange.
type Options struct {
	MaxToolRounds     int
	StopOnUnknownTool bool
	Logf              func(string, ...interface{})
	Debugf            func(string, ...interface{})
	// Now defaults to time.Now.
	Now func() time.Time
}

// Turn is one visible line of the conversation.
type Turn struct {
	Role string
	Text string
}

// Controller walks a Session through upload, analysis, refinement and
// results.
type Controller struct {
	provider llm.Provider
	registry *tools.Registry
	loop     ToolLoop
	now      func() time.Time
	session  *Session
	last     LoopStats
}

func NewController(provider llm.Provider, registry *tools.Registry, opts Options) *Controller {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		provider: provider,
		registry: registry,
		loop: ToolLoop{
			Registry:          registry,
			StopOnUnknownTool: opts.StopOnUnknownTool,
			MaxRounds:         opts.MaxToolRounds,
			Logf:              opts.Logf,
			Debugf:            opts.Debugf,
		},
		now: now,
	}
	c.session = newSession(now())
	return c
}

// Session exposes the current session for inspection.
func (c *Controller) Session() *Session {
	return c.session
}

func (c *Controller) Stage() Stage {
	return c.session.Stage
}

// LastStats describes the most recent tool loop run.
func (c *Controller) LastStats() LoopStats {
	return c.last
}

func (c *Controller) require(action string, stage Stage) error {
	if c.session.Stage != stage {
		return &StageError{Action: action, Stage: c.session.Stage}
	}
	return nil
}

// Upload stores the meal photo and moves to Analyzing.
func (c *Controller) Upload(data []byte) error {
	if err := c.require("upload", StageUpload); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrUnsupportedImage
	}
	mime := http.DetectContentType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		return fmt.Errorf("%w (detected %s)", ErrUnsupportedImage, mime)
	}

	c.session.Image = &llm.Image{MimeType: mime, Data: append([]byte(nil), data...)}
	c.session.Stage = StageAnalyzing
	return nil
}

// Analyze sends the analysis prompt with the photo and returns the model's
// first visual assessment.
func (c *Controller) Analyze(ctx context.Context) (string, error) {
	if err := c.require("analyze", StageAnalyzing); err != nil {
		return "", err
	}

	conv := NewConversation(c.provider, c.registry.LLMTools())
	resp, err := c.run(ctx, conv, history.NewUserMessage(AnalysisPrompt, *c.session.Image))
	if err != nil {
		return "", err
	}

	c.session.Conversation = conv
	c.session.Stage = StageConversation
	return resp.GetContent(), nil
}

// Refine forwards user details to the model.
func (c *Controller) Refine(ctx context.Context, text string) (string, error) {
	if err := c.require("refine", StageConversation); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	resp, err := c.run(ctx, c.session.Conversation, history.NewUserMessage(text))
	if err != nil {
		return "", err
	}
	return resp.GetContent(), nil
}

// Finalize asks for the JSON breakdown and moves to Results.
func (c *Controller) Finalize(ctx context.Context) (string, error) {
	if err := c.require("finalize", StageConversation); err != nil {
		return "", err
	}

	resp, err := c.run(ctx, c.session.Conversation, history.NewUserMessage(FinalPrompt))
	if err != nil {
		return "", err
	}

	c.session.FinalText = resp.GetContent()
	c.session.Stage = StageResults
	return c.session.FinalText, nil
}

// Report extracts the breakdown from the final answer. It is recomputed on
// every call.
func (c *Controller) Report() (nutrition.Report, error) {
	if err := c.require("report", StageResults); err != nil {
		return nutrition.Report{}, err
	}
	return nutrition.Extract(c.session.FinalText)
}

// Reset discards the session and starts a fresh one at Upload.
func (c *Controller) Reset() {
	c.session = newSession(c.now())
	c.last = LoopStats{}
}

// Transcript lists the user and model text turns, leaving out the analysis
// instructions and tool traffic.
func (c *Controller) Transcript() []Turn {
	conv := c.session.Conversation
	if conv == nil {
		return nil
	}
	var turns []Turn
	for _, msg := range conv.History() {
		role := msg.GetRole()
		if role != llm.RoleUser && role != llm.RoleModel {
			continue
		}
		if history.IsInstructionTurn(msg) {
			continue
		}
		text := strings.TrimSpace(msg.GetContent())
		if text == "" {
			continue
		}
		turns = append(turns, Turn{Role: role, Text: text})
	}
	return turns
}

func (c *Controller) run(ctx context.Context, conv *Conversation, msg llm.Message) (llm.Message, error) {
	resp, stats, err := c.loop.Run(ctx, conv, msg)
	c.last = stats
	if err != nil {
		return nil, err
	}
	return resp, nil
}
