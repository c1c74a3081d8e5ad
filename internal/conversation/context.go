package conversation

import (
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// Context is the durable view of an interview session. It carries
// everything needed to rebuild the in-process session after a restart.
type Context struct {
	SessionID        string               `json:"sessionId"`
	Profile          interview.Profile    `json:"profile"`
	Focus            string               `json:"focus,omitempty"`
	Transcript       []interview.Message  `json:"transcript"`
	CurrentTopic     interview.Category   `json:"currentTopic,omitempty"`
	TopicHistory     []interview.Category `json:"topicHistory,omitempty"`
	QuestionsAsked   int                  `json:"questionsAsked"`
	PlannedQuestions int                  `json:"plannedQuestions"`
	AnsweredCount    int                  `json:"answeredCount"`
	Complete         bool                 `json:"complete"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// apply appends the message and updates progress and topic tracking.
func (c *Context) apply(msg interview.Message) {
	c.Transcript = append(c.Transcript, msg)

	switch msg.Role {
	case interview.RoleInterviewer:
		c.QuestionsAsked++
		if msg.IsFollowUp || msg.Category == "" || msg.Category == c.CurrentTopic {
			return
		}
		if c.CurrentTopic != "" {
			c.TopicHistory = append(c.TopicHistory, c.CurrentTopic)
		}
		c.CurrentTopic = msg.Category
	case interview.RoleCandidate:
		c.AnsweredCount++
	}
}

// Recent returns up to n trailing transcript messages.
func (c *Context) Recent(n int) []interview.Message {
	if n <= 0 || len(c.Transcript) == 0 {
		return nil
	}
	start := max(0, len(c.Transcript)-n)
	out := make([]interview.Message, len(c.Transcript)-start)
	copy(out, c.Transcript[start:])
	return out
}

// RecentCandidate returns up to n trailing candidate messages in order.
func (c *Context) RecentCandidate(n int) []interview.Message {
	var out []interview.Message
	for i := len(c.Transcript) - 1; i >= 0 && len(out) < n; i-- {
		if c.Transcript[i].Role == interview.RoleCandidate {
			out = append(out, c.Transcript[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Questions returns all interviewer turns as questions, oldest first.
func (c *Context) Questions() []interview.Question {
	var out []interview.Question
	for _, m := range c.Transcript {
		if m.Role == interview.RoleInterviewer {
			out = append(out, m.Question())
		}
	}
	return out
}

// LastQuestion returns the most recent interviewer turn.
func (c *Context) LastQuestion() (interview.Question, bool) {
	for i := len(c.Transcript) - 1; i >= 0; i-- {
		if c.Transcript[i].Role == interview.RoleInterviewer {
			return c.Transcript[i].Question(), true
		}
	}
	return interview.Question{}, false
}

// TrailingFollowUps counts consecutive follow-up questions at the end of the transcript.
func (c *Context) TrailingFollowUps() int {
	count := 0
	for i := len(c.Transcript) - 1; i >= 0; i-- {
		m := c.Transcript[i]
		if m.Role != interview.RoleInterviewer {
			continue
		}
		if !m.IsFollowUp {
			break
		}
		count++
	}
	return count
}
