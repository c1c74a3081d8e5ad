package prompt

import (
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// Covered reports which names already appear in previous question texts.
// Matching is a case-insensitive substring scan: paraphrases are missed and
// short names can match inside longer words, so treat the result as an
// approximation.
func Covered(names []string, previous []interview.Question) map[string]bool {
	covered := make(map[string]bool, len(names))
	if len(names) == 0 {
		return covered
	}

	texts := make([]string, 0, len(previous))
	for _, q := range previous {
		texts = append(texts, strings.ToLower(q.Text))
	}

	for _, name := range names {
		needle := strings.ToLower(strings.TrimSpace(name))
		if needle == "" {
			continue
		}
		for _, text := range texts {
			if strings.Contains(text, needle) {
				covered[name] = true
				break
			}
		}
	}
	return covered
}

func firstUncovered(names []string, previous []interview.Question) (string, bool) {
	covered := Covered(names, previous)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if !covered[name] {
			return name, true
		}
	}
	return "", false
}

func coveredList(names []string, previous []interview.Question) []string {
	covered := Covered(names, previous)
	var out []string
	for _, name := range names {
		if covered[name] {
			out = append(out, name)
		}
	}
	return out
}
