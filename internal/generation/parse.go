package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// Candidate is a validated question as produced by the backend. It has no
// identifier yet.
type Candidate struct {
	Text       string
	Category   interview.Category
	Difficulty interview.Difficulty
}

// FollowUp carries the two independent parts of a follow-up reply. Either may
// be missing and is then replaced by the caller.
type FollowUp struct {
	Acknowledgment string
	Question       *Candidate
}

type rawQuestion struct {
	Text       string `json:"text"`
	Question   string `json:"question"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type rawFollowUp struct {
	HumanResponse    string `json:"humanResponse"`
	FollowUpQuestion any    `json:"followUpQuestion"`
}

// ParseQuestion repairs and validates a question reply of the form
// {"text": ..., "category": ..., "difficulty": ...}.
func ParseQuestion(raw string) (Candidate, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Candidate{}, err
	}

	var rq rawQuestion
	if err := decodeInto(fields, &rq); err != nil {
		return Candidate{}, err
	}

	return rq.candidate("")
}

// ParseFollowUp repairs and validates a reply of the form
// {"humanResponse": ..., "followUpQuestion": {...}}. An invalid question part
// is dropped while a usable acknowledgment is kept.
func ParseFollowUp(raw string) (FollowUp, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return FollowUp{}, err
	}

	var rf rawFollowUp
	if err := decodeInto(fields, &rf); err != nil {
		return FollowUp{}, err
	}

	result := FollowUp{Acknowledgment: strings.TrimSpace(rf.HumanResponse)}

	switch v := rf.FollowUpQuestion.(type) {
	case map[string]any:
		result.Question = followUpCandidate(v)
	case string:
		if text := strings.TrimSpace(v); text != "" {
			result.Question = &Candidate{
				Text:       text,
				Category:   interview.CategoryFollowUp,
				Difficulty: interview.DifficultyMedium,
			}
		}
	case nil:
		// Some models answer with a flat question object.
		result.Question = followUpCandidate(fields)
	}

	if result.Acknowledgment == "" && result.Question == nil {
		return FollowUp{}, fmt.Errorf("%w: follow-up reply has neither acknowledgment nor question", ErrMalformedResponse)
	}

	return result, nil
}

func followUpCandidate(fields map[string]any) *Candidate {
	var rq rawQuestion
	if err := decodeInto(fields, &rq); err != nil {
		return nil
	}
	c, err := rq.candidate(interview.CategoryFollowUp)
	if err != nil {
		return nil
	}
	return &c
}

func (rq rawQuestion) candidate(defaultCategory interview.Category) (Candidate, error) {
	text := strings.TrimSpace(rq.Text)
	if text == "" {
		text = strings.TrimSpace(rq.Question)
	}
	if text == "" {
		return Candidate{}, fmt.Errorf("%w: %w", ErrMalformedResponse, ErrEmptyText)
	}

	category := defaultCategory
	if strings.TrimSpace(rq.Category) != "" || category == "" {
		parsed, ok := interview.ParseCategory(rq.Category)
		if !ok {
			return Candidate{}, fmt.Errorf("%w: %w %q", ErrMalformedResponse, ErrInvalidCategory, rq.Category)
		}
		category = parsed
	}

	difficulty := interview.DifficultyMedium
	if strings.TrimSpace(rq.Difficulty) != "" {
		parsed, ok := interview.ParseDifficulty(rq.Difficulty)
		if !ok {
			return Candidate{}, fmt.Errorf("%w: %w %q", ErrMalformedResponse, ErrInvalidDifficulty, rq.Difficulty)
		}
		difficulty = parsed
	}

	return Candidate{Text: text, Category: category, Difficulty: difficulty}, nil
}

func decodeObject(raw string) (map[string]any, error) {
	object, err := extractObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(object), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrMalformedResponse, ErrNoJSONObject, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, ErrNoJSONObject)
	}
	return fields, nil
}

// decodeInto maps loosely typed fields onto a reply struct, accepting numbers
// or booleans where strings are expected.
func decodeInto(fields map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
