package analysis

import (
	"testing"

	"github.com/spigell/hh-interviewer/internal/interview"
)

func candidate(text string) interview.Message {
	return interview.Message{Role: interview.RoleCandidate, Text: text}
}

func interviewer(text string) interview.Message {
	return interview.Message{Role: interview.RoleInterviewer, Text: text}
}

func TestFlowMonitorAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		recent []interview.Message
		want   Analysis
	}{
		{
			name: "on topic",
			recent: []interview.Message{
				interviewer("Tell me about your last project."),
				candidate("I built a billing service in Go with PostgreSQL."),
			},
			want: Analysis{},
		},
		{
			name: "sports in latest answer",
			recent: []interview.Message{
				interviewer("How do you handle deadlines?"),
				candidate("Honestly I was watching the football playoffs all week."),
			},
			want: Analysis{NeedsRedirection: true, Topic: TopicSports},
		},
		{
			name: "politics in previous answer",
			recent: []interview.Message{
				candidate("The election results were shocking, the president should resign."),
				interviewer("Let's talk about testing."),
				candidate("I write table driven tests."),
			},
			want: Analysis{NeedsRedirection: true, Topic: TopicPolitics},
		},
		{
			name: "older turns are outside the window",
			recent: []interview.Message{
				candidate("My girlfriend and I went to a wedding."),
				candidate("I use profiling to find hot paths."),
				candidate("Then I rewrote the allocator."),
			},
			want: Analysis{},
		},
		{
			name: "keywords inside words do not match",
			recent: []interview.Message{
				candidate("I used godoc and a moviepy script for the demo."),
			},
			want: Analysis{},
		},
		{
			name: "interviewer text is ignored",
			recent: []interview.Message{
				interviewer("Do you follow football?"),
				candidate("I prefer to discuss my experience with Kubernetes."),
			},
			want: Analysis{},
		},
		{
			name: "most frequent topic wins",
			recent: []interview.Message{
				candidate("I saw a movie about basketball, then the NBA finals and the world cup."),
			},
			want: Analysis{NeedsRedirection: true, Topic: TopicSports},
		},
		{
			name:   "no candidate turns",
			recent: nil,
			want:   Analysis{},
		},
	}

	monitor := NewFlowMonitor(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := monitor.Analyze(tt.recent); got != tt.want {
				t.Fatalf("Analyze() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewFlowMonitorWindow(t *testing.T) {
	t.Parallel()

	if got := NewFlowMonitor(0).Window(); got != DefaultFlowWindow {
		t.Fatalf("expected default window %d, got %d", DefaultFlowWindow, got)
	}
	if got := NewFlowMonitor(4).Window(); got != 4 {
		t.Fatalf("expected window 4, got %d", got)
	}
}

func TestRedirectionCycles(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < len(redirections); i++ {
		seen[Redirection(i)] = true
	}
	if len(seen) != len(redirections) {
		t.Fatalf("expected %d distinct redirections, got %d", len(redirections), len(seen))
	}
	if Redirection(len(redirections)) != Redirection(0) {
		t.Fatalf("expected redirections to cycle")
	}
	if Redirection(-1) == "" {
		t.Fatalf("expected negative index to be handled")
	}
}
