package interview

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFallback is returned when no template exists for a category.
var ErrNoFallback = errors.New("no fallback template for category")

// Templates with a %s verb receive the focus (skill or project); the plain
// variant is used when the focus is empty.
type fallbackTemplate struct {
	focused string
	plain   string
}

var fallbackTemplates = map[Category][]fallbackTemplate{
	CategoryIntroduction: {
		{plain: "To get started, could you tell me a bit about yourself and what drew you to your field?"},
		{focused: "To get started, could you introduce yourself and tell me what you enjoy most about working in %s?",
			plain: "Could you walk me through your background and the kind of work you enjoy most?"},
	},
	CategoryTechnical: {
		{focused: "Can you walk me through how you have used %s in a real project, including one design decision you made?",
			plain: "Can you walk me through a technical problem you solved recently and how you implemented the solution?"},
		{focused: "What are the trade-offs you consider when working with %s, and how did they affect your last implementation?",
			plain: "Which tool or technology do you know best, and what are its main trade-offs in practice?"},
	},
	CategoryProjectSpecific: {
		{focused: "Tell me about %s. What was your role, and what was the hardest technical challenge you faced?",
			plain: "Tell me about a project you are proud of. What was your role and the hardest challenge?"},
		{focused: "If you were to rebuild %s today, what would you change and why?",
			plain: "If you could rebuild one of your past projects from scratch, what would you do differently?"},
	},
	CategoryBehavioral: {
		{plain: "Tell me about a time when you disagreed with a teammate. How did you handle it and what was the outcome?"},
		{plain: "Describe a situation where a deadline was at risk. What did you do, specifically?"},
	},
	CategoryProblemSolving: {
		{plain: "Describe the most difficult bug you have tracked down. How did you narrow down the cause?"},
		{focused: "Suppose a service built with %s suddenly became slow in production. How would you investigate?",
			plain: "Suppose a system you own suddenly became slow in production. How would you investigate?"},
	},
	CategoryLearningGrowth: {
		{plain: "What is something you learned recently, and how did you go about learning it?"},
		{focused: "How do you keep your %s skills current?",
			plain: "How do you keep your technical skills current?"},
	},
	CategoryFollowUp: {
		{plain: "Could you expand on that with a concrete example and what you specifically did?"},
		{plain: "Can you go a bit deeper on that? What was the outcome, and what would you do differently?"},
	},
	CategorySituational: {
		{plain: "Imagine you join a team whose main service has no tests and frequent incidents. What would you do in your first month?"},
		{focused: "Imagine a stakeholder asks for a feature in %s that you believe is risky. How would you handle the conversation?",
			plain: "Imagine a stakeholder asks for a feature you believe is risky. How would you handle the conversation?"},
	},
	CategoryGeneral: {
		{plain: "What kind of work environment helps you do your best work?"},
	},
}

// FallbackQuestion builds a deterministic templated question for the category.
// seq selects among the available templates so consecutive fallbacks vary.
func FallbackQuestion(category Category, difficulty Difficulty, focus string, seq int) (Question, error) {
	templates, ok := fallbackTemplates[category]
	if !ok || len(templates) == 0 {
		return Question{}, fmt.Errorf("%w: %q", ErrNoFallback, category)
	}
	if seq < 0 {
		seq = -seq
	}

	tpl := templates[seq%len(templates)]
	text := tpl.plain
	focus = strings.TrimSpace(focus)
	if tpl.focused != "" && focus != "" {
		text = fmt.Sprintf(tpl.focused, focus)
	}

	if _, ok := ParseDifficulty(string(difficulty)); !ok {
		difficulty = DifficultyMedium
	}

	return Question{
		Text:       text,
		Category:   category,
		Difficulty: difficulty,
		IsFollowUp: category == CategoryFollowUp,
	}, nil
}

var acknowledgments = []string{
	"Thanks for sharing that.",
	"That's helpful context, thank you.",
	"Got it, thanks.",
	"I appreciate the detail.",
	"Thanks, that makes sense.",
}

var followUpAcknowledgments = []string{
	"Interesting, I'd like to hear a bit more about that.",
	"Thanks. Let's dig into that a little deeper.",
	"That's a good start.",
}

// Acknowledgment returns a short neutral acknowledgment for the n-th answer.
func Acknowledgment(n int) string {
	return pick(acknowledgments, n)
}

// FollowUpAcknowledgment is used when the generated follow-up carries no acknowledgment.
func FollowUpAcknowledgment(n int) string {
	return pick(followUpAcknowledgments, n)
}

// ClosingMessage is returned alongside the completion signal.
const ClosingMessage = "Thank you for your time. That concludes our interview."

func pick(items []string, n int) string {
	if n < 0 {
		n = -n
	}
	return items[n%len(items)]
}
