package session

import (
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

type State string

const (
	StateCreated   State = "created"
	StateActive    State = "active"
	StateComplete  State = "complete"
	StateAbandoned State = "abandoned"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateAbandoned
}

// Session is the in-process view of an interview. The durable context is
// authoritative; a Session can always be rebuilt from it.
type Session struct {
	ID                   string
	PlannedQuestionCount int
	AskedQuestions       []interview.Question
	AnsweredCount        int
	State                State
	CreatedAt            time.Time
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s Session) CurrentQuestion() (interview.Question, bool) {
	if s.State.Terminal() || len(s.AskedQuestions) == 0 {
		return interview.Question{}, false
	}
	return s.AskedQuestions[len(s.AskedQuestions)-1], true
}

func (s Session) clone() Session {
	s.AskedQuestions = append([]interview.Question(nil), s.AskedQuestions...)
	return s
}

// CreateRequest starts a new interview. SessionID and Focus are optional.
type CreateRequest struct {
	SessionID string            `json:"sessionId,omitempty"`
	Profile   interview.Profile `json:"profile"`
	Focus     string            `json:"focus,omitempty"`
}

type Created struct {
	SessionID            string             `json:"sessionId"`
	FirstQuestion        interview.Question `json:"firstQuestion"`
	PlannedQuestionCount int                `json:"plannedQuestionCount"`
}

// Turn is the orchestrator's reply to one answer. NextQuestion is nil once
// the interview is complete.
type Turn struct {
	NextQuestion   *interview.Question `json:"nextQuestion"`
	IsComplete     bool                `json:"isComplete"`
	IsFollowUp     bool                `json:"isFollowUp"`
	Acknowledgment string              `json:"acknowledgment,omitempty"`
	Redirected     bool                `json:"redirected,omitempty"`
}

type Progress struct {
	Asked    int `json:"asked"`
	Answered int `json:"answered"`
	Planned  int `json:"planned"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	SessionID       string              `json:"sessionId"`
	State           State               `json:"state"`
	CurrentQuestion *interview.Question `json:"currentQuestion"`
	Progress        Progress            `json:"progress"`
	CreatedAt       time.Time           `json:"createdAt"`
}
