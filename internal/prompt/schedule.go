package prompt

import (
	"github.com/spigell/hh-interviewer/internal/interview"
)

// Stage names the phase of the interview a target was chosen for.
type Stage string

const (
	StageOpening    Stage = "opening"
	StageTechnical  Stage = "technical"
	StageProjects   Stage = "projects"
	StageBehavioral Stage = "behavioral"
	StageClosing    Stage = "closing"
)

// Target is the category, difficulty and optional focus of the next main question.
type Target struct {
	Stage      Stage
	Category   interview.Category
	Difficulty interview.Difficulty
	// Focus is the skill or project the question should be about, if any.
	Focus string
}

// NextTarget picks the next main question's target from interview progress.
// Coverage is derived from previous question texts, see Covered.
func NextTarget(profile interview.Profile, asked, planned int, previous []interview.Question) Target {
	if asked <= 0 {
		return Target{
			Stage:      StageOpening,
			Category:   interview.CategoryIntroduction,
			Difficulty: interview.DifficultyEasy,
		}
	}
	if planned <= 0 {
		planned = interview.MinPlannedQuestions
	}

	tier := profile.NormalizedTier()
	progress := float64(asked) / float64(planned)

	switch {
	case progress < 0.3:
		return Target{
			Stage:      StageTechnical,
			Category:   interview.CategoryTechnical,
			Difficulty: shift(interview.DifficultyMedium, tier),
			Focus:      nextSkill(profile.Skills, previous, asked),
		}
	case progress < 0.6:
		if project, ok := firstUncovered(profile.Projects, previous); ok {
			return Target{
				Stage:      StageProjects,
				Category:   interview.CategoryProjectSpecific,
				Difficulty: interview.DifficultyMedium,
				Focus:      project,
			}
		}
		return Target{
			Stage:      StageProjects,
			Category:   interview.CategoryTechnical,
			Difficulty: shift(interview.DifficultyHard, tier),
			Focus:      nextSkill(profile.Skills, previous, asked),
		}
	case progress < 0.8:
		if !askedCategory(previous, interview.CategoryBehavioral) {
			return Target{
				Stage:      StageBehavioral,
				Category:   interview.CategoryBehavioral,
				Difficulty: interview.DifficultyMedium,
			}
		}
		return Target{
			Stage:      StageBehavioral,
			Category:   interview.CategoryProblemSolving,
			Difficulty: shift(interview.DifficultyHard, tier),
		}
	default:
		return Target{
			Stage:      StageClosing,
			Category:   interview.CategorySituational,
			Difficulty: interview.DifficultyMedium,
		}
	}
}

// shift moves a difficulty one step towards the candidate's tier.
func shift(d interview.Difficulty, tier interview.Tier) interview.Difficulty {
	levels := []interview.Difficulty{interview.DifficultyEasy, interview.DifficultyMedium, interview.DifficultyHard}

	idx := 1
	for i, l := range levels {
		if l == d {
			idx = i
		}
	}

	switch tier {
	case interview.TierEntry:
		idx--
	case interview.TierSenior:
		idx++
	}
	return levels[max(0, min(idx, len(levels)-1))]
}

// nextSkill returns the first skill not yet referenced. When every skill has
// been covered it cycles through them by position.
func nextSkill(skills []string, previous []interview.Question, asked int) string {
	if skill, ok := firstUncovered(skills, previous); ok {
		return skill
	}
	if len(skills) == 0 {
		return ""
	}
	return skills[asked%len(skills)]
}

func askedCategory(previous []interview.Question, c interview.Category) bool {
	for _, q := range previous {
		if q.Category == c {
			return true
		}
	}
	return false
}
