package estimator

import (
	"time"

	"github.com/google/uuid"

	"nutriai/internal/ai/llm"
)

// Stage is the current phase of the estimate workflow.
type Stage string

const (
	StageUpload       Stage = "upload"
	StageAnalyzing    Stage = "analyzing"
	StageConversation Stage = "conversation"
	StageResults      Stage = "results"
)

func (s Stage) String() string {
	return string(s)
}

// Session is the state of one estimate from photo upload to results. Only
// the Controller and the ToolLoop mutate it; Reset replaces it wholesale.
type Session struct {
	ID           string
	Stage        Stage
	Image        *llm.Image
	Conversation *Conversation
	FinalText    string
	StartedAt    time.Time
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Stage:     StageUpload,
		StartedAt: now,
	}
}
