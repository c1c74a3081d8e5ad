package interview

import (
	"strings"
	"time"
)

// Tier is the candidate's experience level.
type Tier string

const (
	TierEntry  Tier = "entry"
	TierMid    Tier = "mid"
	TierSenior Tier = "senior"
)

// Profile is the structured candidate data an interview is planned from.
// It is supplied once at session creation and never mutated afterwards.
type Profile struct {
	Skills         []string `json:"skills" mapstructure:"skills"`
	Projects       []string `json:"projects" mapstructure:"projects"`
	WorkExperience []string `json:"workExperience" mapstructure:"work-experience"`
	Achievements   []string `json:"achievements" mapstructure:"achievements"`
	Experience     Tier     `json:"experience" mapstructure:"experience"`
	Domain         string   `json:"domain" mapstructure:"domain"`
}

// NormalizedTier returns the profile tier, defaulting unknown values to mid.
func (p Profile) NormalizedTier() Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(string(p.Experience)))) {
	case TierEntry:
		return TierEntry
	case TierSenior:
		return TierSenior
	default:
		return TierMid
	}
}

type Category string

const (
	CategoryIntroduction    Category = "introduction"
	CategoryTechnical       Category = "technical"
	CategoryProjectSpecific Category = "project-specific"
	CategoryBehavioral      Category = "behavioral"
	CategoryProblemSolving  Category = "problem-solving"
	CategoryLearningGrowth  Category = "learning-growth"
	CategoryFollowUp        Category = "follow-up"
	CategorySituational     Category = "situational"
	CategoryGeneral         Category = "general"
)

var categories = []Category{
	CategoryIntroduction,
	CategoryTechnical,
	CategoryProjectSpecific,
	CategoryBehavioral,
	CategoryProblemSolving,
	CategoryLearningGrowth,
	CategoryFollowUp,
	CategorySituational,
	CategoryGeneral,
}

// ParseCategory normalizes loosely formatted labels such as "Project_Specific"
// and reports whether the result is a known category.
func ParseCategory(s string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	for _, c := range categories {
		if string(c) == normalized {
			return c, true
		}
	}
	return Category(normalized), false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a difficulty label and reports whether it is known.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	default:
		return d, false
	}
}

// Question is a single interviewer prompt. It is immutable once produced.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	IsFollowUp bool       `json:"isFollowUp"`
}

type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Message is one transcript entry. Category, Difficulty, QuestionID and
// IsFollowUp are only set on interviewer messages.
type Message struct {
	Role       Role       `json:"role"`
	Text       string     `json:"text"`
	Timestamp  time.Time  `json:"timestamp"`
	Category   Category   `json:"category,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	QuestionID string     `json:"questionId,omitempty"`
	IsFollowUp bool       `json:"isFollowUp,omitempty"`
}

// QuestionMessage converts a question into its transcript form.
func QuestionMessage(q Question, at time.Time) Message {
	return Message{
		Role:       RoleInterviewer,
		Text:       q.Text,
		Timestamp:  at,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		QuestionID: q.ID,
		IsFollowUp: q.IsFollowUp,
	}
}

// Question rebuilds the question carried by an interviewer message.
func (m Message) Question() Question {
	return Question{
		ID:         m.QuestionID,
		Text:       m.Text,
		Category:   m.Category,
		Difficulty: m.Difficulty,
		IsFollowUp: m.IsFollowUp,
	}
}
