package analysis

import (
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/interview"
)

func fixedSampler(v float64) Sampler {
	return func() float64 { return v }
}

func TestShouldFollowUp(t *testing.T) {
	t.Parallel()

	long := func(s string) string {
		return s + strings.Repeat(" and that is how it went overall", 4)
	}

	tests := []struct {
		name     string
		answer   string
		category interview.Category
		sample   float64
		want     Decision
	}{
		{
			name:     "brief behavioral answer",
			answer:   "I usually talk to people and resolve it quickly.",
			category: interview.CategoryBehavioral,
			want:     Decision{FollowUp: true, Reason: ReasonBrief},
		},
		{
			name:     "whitespace does not count",
			answer:   "   ok   " + strings.Repeat(" ", 200),
			category: interview.CategoryGeneral,
			want:     Decision{FollowUp: true, Reason: ReasonBrief},
		},
		{
			name:     "behavioral without example",
			answer:   long("I think communication matters a lot and I always try to keep everybody aligned"),
			category: interview.CategoryBehavioral,
			want:     Decision{FollowUp: true, Reason: ReasonNoExample},
		},
		{
			name:     "behavioral with example",
			answer:   long("For example, in my previous role two engineers disagreed about the release plan"),
			category: interview.CategoryBehavioral,
			want:     Decision{},
		},
		{
			name:     "technical without implementation sampled",
			answer:   long("Channels are a way for goroutines to communicate and synchronise with each other"),
			category: interview.CategoryTechnical,
			sample:   0.1,
			want:     Decision{FollowUp: true, Reason: ReasonNoImplementation},
		},
		{
			name:     "technical without implementation not sampled",
			answer:   long("Channels are a way for goroutines to communicate and synchronise with each other"),
			category: interview.CategoryTechnical,
			sample:   0.9,
			want:     Decision{},
		},
		{
			name:     "technical with implementation",
			answer:   long("I implemented a worker pool with buffered channels and tested it under load"),
			category: interview.CategoryTechnical,
			sample:   0.1,
			want:     Decision{},
		},
		{
			name:     "long situational answer",
			answer:   long("I would first gather the facts before changing anything in production"),
			category: interview.CategorySituational,
			want:     Decision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			classifier := NewFollowUpClassifier(fixedSampler(tt.sample))
			if got := classifier.ShouldFollowUp(tt.answer, tt.category); got != tt.want {
				t.Fatalf("ShouldFollowUp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestShouldFollowUpCountsRunes(t *testing.T) {
	t.Parallel()

	answer := strings.Repeat("ж", 99)
	classifier := NewFollowUpClassifier(fixedSampler(1))

	if got := classifier.ShouldFollowUp(answer, interview.CategoryGeneral); got.Reason != ReasonBrief {
		t.Fatalf("expected 99 runes to be brief, got %+v", got)
	}
	if got := classifier.ShouldFollowUp(answer+"ж", interview.CategoryGeneral); got.FollowUp {
		t.Fatalf("expected 100 runes to pass, got %+v", got)
	}
}

func TestWithThresholds(t *testing.T) {
	t.Parallel()

	classifier := NewFollowUpClassifier(fixedSampler(0.5)).WithThresholds(10, 0.6)
	answer := "Goroutines are cheap threads managed by the runtime scheduler"

	if got := classifier.ShouldFollowUp(answer, interview.CategoryTechnical); got.Reason != ReasonNoImplementation {
		t.Fatalf("expected raised probe rate to trigger, got %+v", got)
	}
}
