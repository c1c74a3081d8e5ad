package interview

const (
	basePlannedQuestions = 8
	MinPlannedQuestions  = 10
	MaxPlannedQuestions  = 15

	maxProjectBonus = 3
	experienceBonus = 2
	maxSkillBonus   = 3
	skillsPerBonus  = 3
)

// Plan returns the total number of main questions for the profile.
// Richer profiles get longer interviews, always within [10,15].
func Plan(p Profile) int {
	total := basePlannedQuestions
	total += min(len(p.Projects), maxProjectBonus)
	if len(p.WorkExperience) > 0 {
		total += experienceBonus
	}
	total += min(len(p.Skills)/skillsPerBonus, maxSkillBonus)

	return max(MinPlannedQuestions, min(total, MaxPlannedQuestions))
}
