package interview

import (
	"errors"
	"strings"
	"testing"
)

func TestFallbackQuestionCoversEveryCategory(t *testing.T) {
	t.Parallel()

	for _, c := range categories {
		for seq := 0; seq < 4; seq++ {
			q, err := FallbackQuestion(c, DifficultyMedium, "Go", seq)
			if err != nil {
				t.Fatalf("category %s: unexpected error: %v", c, err)
			}
			if strings.TrimSpace(q.Text) == "" {
				t.Fatalf("category %s: expected non-empty text", c)
			}
			if q.Category != c {
				t.Fatalf("expected category %s, got %s", c, q.Category)
			}
		}
	}
}

func TestFallbackQuestionUsesFocus(t *testing.T) {
	q, err := FallbackQuestion(CategoryProjectSpecific, DifficultyHard, "Payments Gateway", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(q.Text, "Payments Gateway") {
		t.Fatalf("expected focus in text, got %q", q.Text)
	}
	if q.Difficulty != DifficultyHard {
		t.Fatalf("expected hard difficulty, got %s", q.Difficulty)
	}

	plain, err := FallbackQuestion(CategoryProjectSpecific, "", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(plain.Text, "%s") {
		t.Fatalf("unexpected verb in plain text: %q", plain.Text)
	}
	if plain.Difficulty != DifficultyMedium {
		t.Fatalf("expected default medium difficulty, got %s", plain.Difficulty)
	}
}

func TestFallbackQuestionIsDeterministic(t *testing.T) {
	a, _ := FallbackQuestion(CategoryTechnical, DifficultyEasy, "Kubernetes", 3)
	b, _ := FallbackQuestion(CategoryTechnical, DifficultyEasy, "Kubernetes", 3)
	if a != b {
		t.Fatalf("expected identical questions, got %+v and %+v", a, b)
	}
}

func TestFallbackQuestionUnknownCategory(t *testing.T) {
	_, err := FallbackQuestion(Category("astrology"), DifficultyEasy, "", 0)
	if !errors.Is(err, ErrNoFallback) {
		t.Fatalf("expected ErrNoFallback, got %v", err)
	}
}

func TestFollowUpFallbackIsMarked(t *testing.T) {
	q, err := FallbackQuestion(CategoryFollowUp, DifficultyMedium, "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.IsFollowUp {
		t.Fatal("expected follow-up fallback to be marked as follow-up")
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect Category
		ok     bool
	}{
		{input: "technical", expect: CategoryTechnical, ok: true},
		{input: " Project_Specific ", expect: CategoryProjectSpecific, ok: true},
		{input: "problem solving", expect: CategoryProblemSolving, ok: true},
		{input: "FOLLOW-UP", expect: CategoryFollowUp, ok: true},
		{input: "trivia", expect: Category("trivia"), ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.input)
		if got != tt.expect || ok != tt.ok {
			t.Fatalf("ParseCategory(%q): expected (%s, %v), got (%s, %v)", tt.input, tt.expect, tt.ok, got, ok)
		}
	}
}

func TestNormalizedTier(t *testing.T) {
	if (Profile{Experience: "Senior"}).NormalizedTier() != TierSenior {
		t.Fatal("expected senior tier")
	}
	if (Profile{}).NormalizedTier() != TierMid {
		t.Fatal("expected mid tier by default")
	}
}
