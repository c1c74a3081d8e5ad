package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/interview"
)

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"profile.yaml": `skills: [Go, SQL, K8s]
projects: [billing]
work-experience: ["Acme 2020-2024"]
experience: senior
domain: fintech
`,
		"profile.json": `{"skills":["Go","SQL","K8s"],"projects":["billing"],"workExperience":["Acme 2020-2024"],"experience":"senior","domain":"fintech"}`,
		"empty.json":   `{"skills":[],"projects":["billing"]}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	want := interview.Profile{
		Skills:         []string{"Go", "SQL", "K8s"},
		Projects:       []string{"billing"},
		WorkExperience: []string{"Acme 2020-2024"},
		Experience:     interview.TierSenior,
		Domain:         "fintech",
	}

	for _, name := range []string{"profile.yaml", "profile.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := loadProfile(filepath.Join(dir, name))
			if err != nil {
				t.Fatalf("loadProfile returned error: %v", err)
			}
			if strings.Join(got.Skills, ",") != strings.Join(want.Skills, ",") ||
				strings.Join(got.Projects, ",") != strings.Join(want.Projects, ",") ||
				strings.Join(got.WorkExperience, ",") != strings.Join(want.WorkExperience, ",") ||
				got.Experience != want.Experience || got.Domain != want.Domain {
				t.Fatalf("loadProfile() = %+v, want %+v", got, want)
			}
			if interview.Plan(got) != interview.Plan(want) {
				t.Fatalf("planned count differs: got %d, want %d", interview.Plan(got), interview.Plan(want))
			}
		})
	}

	if _, err := loadProfile(filepath.Join(dir, "empty.json")); err == nil {
		t.Fatalf("expected error for profile without skills")
	}
	if _, err := loadProfile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing profile")
	}
}
