// Package analysis holds the text heuristics applied to candidate answers:
// whether an answer deserves a follow-up and whether the conversation drifted
// off topic.
package analysis

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	DefaultMinAnswerLength    = 100
	DefaultTechnicalProbeRate = 0.3
)

// Reason explains why a follow-up was requested.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonBrief            Reason = "brief"
	ReasonNoExample        Reason = "no-example"
	ReasonNoImplementation Reason = "no-implementation"
)

type Decision struct {
	FollowUp bool
	Reason   Reason
}

// Sampler returns a value in [0, 1).
type Sampler func() float64

var (
	exampleLanguage = regexp.MustCompile(`(?i)\b(for example|example|for instance|instance|time when|a time|situation|once|i remember|in my (previous|last|current) (role|job|team|company)|at my (previous|last|current) (role|job|team|company))\b`)

	implementationLanguage = regexp.MustCompile(`(?i)\b(implement\w*|buil[td]|build\w*|wrote|written|cod(e|ed|ing)|deploy\w*|design(ed)?|architect\w*|refactor\w*|configur\w*|algorithm\w*|function\w*|api|apis|library|framework|test(s|ed|ing)?|query|queries|schema|using|used)\b`)
)

// FollowUpClassifier decides whether the last answer needs a probing question.
type FollowUpClassifier struct {
	minLength  int
	sampleRate float64
	sample     Sampler
}

// NewFollowUpClassifier returns a classifier with the default thresholds. A nil
// sampler uses math/rand/v2.
func NewFollowUpClassifier(sample Sampler) *FollowUpClassifier {
	if sample == nil {
		sample = rand.Float64
	}
	return &FollowUpClassifier{
		minLength:  DefaultMinAnswerLength,
		sampleRate: DefaultTechnicalProbeRate,
		sample:     sample,
	}
}

// WithThresholds overrides the brief-answer length and the probe rate for
// technical answers lacking implementation detail. Non-positive values keep
// the defaults.
func (c *FollowUpClassifier) WithThresholds(minLength int, sampleRate float64) *FollowUpClassifier {
	if minLength > 0 {
		c.minLength = minLength
	}
	if sampleRate > 0 {
		c.sampleRate = sampleRate
	}
	return c
}

// ShouldFollowUp evaluates the answer to a question of the given category.
func (c *FollowUpClassifier) ShouldFollowUp(answer string, category interview.Category) Decision {
	answer = strings.TrimSpace(answer)

	if utf8.RuneCountInString(answer) < c.minLength {
		return Decision{FollowUp: true, Reason: ReasonBrief}
	}

	switch category {
	case interview.CategoryBehavioral:
		if !exampleLanguage.MatchString(answer) {
			return Decision{FollowUp: true, Reason: ReasonNoExample}
		}
	case interview.CategoryTechnical:
		if !implementationLanguage.MatchString(answer) && c.sample() < c.sampleRate {
			return Decision{FollowUp: true, Reason: ReasonNoImplementation}
		}
	}

	return Decision{}
}
