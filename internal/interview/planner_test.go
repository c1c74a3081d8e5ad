package interview

import (
	"fmt"
	"testing"
)

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return out
}

func TestPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile Profile
		expect  int
	}{
		{
			name:    "empty skills use the floor",
			profile: Profile{},
			expect:  10,
		},
		{
			name:    "empty skills with projects still floor",
			profile: Profile{Projects: names("p", 1)},
			expect:  10,
		},
		{
			name: "rich profile uses the ceiling",
			profile: Profile{
				Skills:         names("s", 9),
				Projects:       names("p", 3),
				WorkExperience: names("w", 1),
			},
			expect: 15,
		},
		{
			name: "bonuses are capped",
			profile: Profile{
				Skills:         names("s", 30),
				Projects:       names("p", 10),
				WorkExperience: names("w", 5),
			},
			expect: 15,
		},
		{
			name: "five skills two projects no experience",
			profile: Profile{
				Skills:   names("s", 5),
				Projects: names("p", 2),
			},
			expect: 11,
		},
		{
			name: "experience bonus",
			profile: Profile{
				Skills:         names("s", 3),
				WorkExperience: names("w", 2),
			},
			expect: 11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Plan(tt.profile); got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	p := Profile{Skills: names("s", 4), Projects: names("p", 2)}
	if Plan(p) != Plan(p) {
		t.Fatal("expected identical plans for identical profiles")
	}
}

func TestIsComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answered, planned int
		expect            bool
	}{
		{answered: 7, planned: 10, expect: false},
		{answered: 8, planned: 10, expect: false},
		{answered: 8, planned: 8, expect: true},
		{answered: 7, planned: 7, expect: false},
		{answered: 10, planned: 10, expect: true},
		{answered: 12, planned: 11, expect: true},
	}

	for _, tt := range tests {
		if got := IsComplete(tt.answered, tt.planned, DefaultMinimumAnswers); got != tt.expect {
			t.Fatalf("IsComplete(%d, %d): expected %v, got %v", tt.answered, tt.planned, tt.expect, got)
		}
	}
}
