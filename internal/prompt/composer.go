// Package prompt builds stage-aware instructions for the generation backend.
package prompt

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

//go:embed question.md
var questionTemplate string

//go:embed followup.md
var followUpTemplate string

const (
	DefaultHistoryTurns = 6
	maxFieldRunes       = 300
	maxAnswerRunes      = 2000
	maxListItems        = 12
)

// Input is the conversation state a prompt is built from.
type Input struct {
	Profile  interview.Profile
	Focus    string
	Asked    int
	Planned  int
	Recent   []interview.Message
	Previous []interview.Question
}

// Composer renders prompts from the embedded templates.
type Composer struct {
	historyTurns int
}

// NewComposer creates a Composer rendering up to historyTurns transcript lines.
func NewComposer(historyTurns int) *Composer {
	if historyTurns <= 0 {
		historyTurns = DefaultHistoryTurns
	}
	return &Composer{historyTurns: historyTurns}
}

// HistoryTurns is the number of trailing transcript messages the composer renders.
func (c *Composer) HistoryTurns() int { return c.historyTurns }

// Question builds the prompt for the next main question.
func (c *Composer) Question(in Input, target Target) string {
	covered := append(coveredList(in.Profile.Skills, in.Previous), coveredList(in.Profile.Projects, in.Previous)...)

	topic := target.Focus
	if topic == "" {
		topic = "choose based on the profile"
	}

	return render(questionTemplate, map[string]string{
		"PROFILE":    renderProfile(in.Profile),
		"FOCUS":      orNone(sanitizeLine(focusOf(in), maxFieldRunes)),
		"ASKED":      strconv.Itoa(in.Asked),
		"PLANNED":    strconv.Itoa(in.Planned),
		"HISTORY":    c.renderHistory(in.Recent),
		"CATEGORY":   string(target.Category),
		"DIFFICULTY": string(target.Difficulty),
		"TOPIC":      sanitizeLine(topic, maxFieldRunes),
		"COVERED":    orNone(joinSanitized(covered)),
	})
}

// FollowUp builds the prompt asking for an acknowledgment plus a follow-up question.
func (c *Composer) FollowUp(in Input, last interview.Question, answer string) string {
	return render(followUpTemplate, map[string]string{
		"PROFILE":  renderProfile(in.Profile),
		"HISTORY":  c.renderHistory(in.Recent),
		"QUESTION": sanitizeLine(last.Text, maxFieldRunes),
		"ANSWER":   sanitizeBlock(answer, maxAnswerRunes),
	})
}

func render(template string, values map[string]string) string {
	out := template
	for key, value := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(out)
}

func focusOf(in Input) string {
	if strings.TrimSpace(in.Focus) != "" {
		return in.Focus
	}
	return in.Profile.Domain
}

func renderProfile(p interview.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Domain: %s\n", orNone(sanitizeLine(p.Domain, maxFieldRunes)))
	fmt.Fprintf(&b, "- Experience level: %s\n", p.NormalizedTier())
	fmt.Fprintf(&b, "- Skills: %s\n", orNone(joinSanitized(p.Skills)))
	fmt.Fprintf(&b, "- Projects: %s\n", orNone(joinSanitized(p.Projects)))
	fmt.Fprintf(&b, "- Work experience: %s\n", orNone(joinSanitized(p.WorkExperience)))
	fmt.Fprintf(&b, "- Achievements: %s", orNone(joinSanitized(p.Achievements)))
	return b.String()
}

func (c *Composer) renderHistory(messages []interview.Message) string {
	if len(messages) > c.historyTurns {
		messages = messages[len(messages)-c.historyTurns:]
	}
	if len(messages) == 0 {
		return "(no conversation yet)"
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		label := "Candidate"
		if m.Role == interview.RoleInterviewer {
			label = "Interviewer"
		}
		lines = append(lines, label+": "+sanitizeLine(m.Text, maxFieldRunes))
	}
	return strings.Join(lines, "\n")
}

func joinSanitized(items []string) string {
	out := make([]string, 0, min(len(items), maxListItems))
	for _, item := range items {
		if len(out) == maxListItems {
			break
		}
		if s := sanitizeLine(item, maxFieldRunes); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "; ")
}

// sanitizeLine collapses whitespace and neutralizes bracketed section markers
// so candidate-provided text cannot imitate template headers.
func sanitizeLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(s)
	return truncate(s, limit)
}

func sanitizeBlock(s string, limit int) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = sanitizeLine(line, limit); line != "" {
			out = append(out, line)
		}
	}
	return truncate(strings.Join(out, "\n"), limit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
