// Package answer decides whether a submitted answer fits the question it
// targets, and whether a question's option list is usable at all.
//
// Two failure families are kept apart: ErrInvalidAnswer is the submitter's
// fault, ErrInvalidConfig means the stored question itself is broken.
package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/unieval/evaluation-backend/internal/model"
)

// MinChoiceOptions is the smallest option set a choice question may have.
const MinChoiceOptions = 2

var (
	// ErrInvalidAnswer marks a malformed or out-of-range submission.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrInvalidConfig marks a question whose stored options cannot be used.
	ErrInvalidConfig = errors.New("question configuration invalid")
	// ErrInvalidOptions marks an option list rejected at authoring time.
	ErrInvalidOptions = errors.New("invalid possible answers")
)

// Validate checks v against a question's declared type and options.
// It returns nil, an error wrapping ErrInvalidAnswer, or an error wrapping
// ErrInvalidConfig.
func Validate(qtype model.QuestionType, options []string, v model.AnswerValue) error {
	switch qtype {
	case model.QuestionTypeText:
		return validateText(v)
	case model.QuestionTypeSingleChoice, model.QuestionTypeBoolean:
		valid, err := usableOptions(qtype, options)
		if err != nil {
			return err
		}
		return validateSingle(valid, v)
	case model.QuestionTypeMultipleChoice:
		valid, err := usableOptions(qtype, options)
		if err != nil {
			return err
		}
		return validateMultiple(valid, v)
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidConfig, qtype)
	}
}

// ValidateQuestion is Validate over a stored question.
func ValidateQuestion(q *model.Question, v model.AnswerValue) error {
	return Validate(q.Type, q.PossibleAnswers, v)
}

func validateText(v model.AnswerValue) error {
	if !v.IsText() {
		return fmt.Errorf("%w: a text answer is required", ErrInvalidAnswer)
	}
	if strings.TrimSpace(v.Text()) == "" {
		return fmt.Errorf("%w: answer must not be empty", ErrInvalidAnswer)
	}
	return nil
}

func validateSingle(valid map[string]struct{}, v model.AnswerValue) error {
	if !v.IsText() {
		return fmt.Errorf("%w: exactly one option must be selected", ErrInvalidAnswer)
	}
	if _, ok := valid[v.Text()]; !ok {
		return fmt.Errorf("%w: answer is not one of the listed options", ErrInvalidAnswer)
	}
	return nil
}

// validateMultiple does not deduplicate selections; repeated picks pass through.
func validateMultiple(valid map[string]struct{}, v model.AnswerValue) error {
	if !v.IsList() {
		return fmt.Errorf("%w: a list of options is required", ErrInvalidAnswer)
	}
	if len(v.Choices()) == 0 {
		return fmt.Errorf("%w: at least one option must be selected", ErrInvalidAnswer)
	}
	for _, c := range v.Choices() {
		if _, ok := valid[c]; !ok {
			return fmt.Errorf("%w: %q is not one of the listed options", ErrInvalidAnswer, c)
		}
	}
	return nil
}

// usableOptions returns the set of entries that are non-empty after trimming.
// It returns ErrInvalidConfig when too few remain, when an entry repeats after
// trimming, or when a boolean question does not carry exactly two entries.
func usableOptions(qtype model.QuestionType, options []string) (map[string]struct{}, error) {
	valid := make(map[string]struct{}, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		key := strings.TrimSpace(o)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s question lists option %q more than once", ErrInvalidConfig, qtype, key)
		}
		seen[key] = struct{}{}
		valid[o] = struct{}{}
	}
	if len(valid) < MinChoiceOptions {
		return nil, fmt.Errorf("%w: %s question has fewer than %d usable options", ErrInvalidConfig, qtype, MinChoiceOptions)
	}
	if qtype == model.QuestionTypeBoolean && (len(options) != 2 || len(valid) != 2) {
		return nil, fmt.Errorf("%w: boolean question must have exactly 2 options", ErrInvalidConfig)
	}
	return valid, nil
}

// NormalizeOptions validates an option list for a new or edited question and
// returns it trimmed. Text questions always get an empty list. Choice
// questions need at least two entries, none blank, none repeated; boolean
// needs exactly two.
func NormalizeOptions(qtype model.QuestionType, options []string) ([]string, error) {
	if !qtype.IsValid() {
		return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidOptions, qtype)
	}
	if !qtype.IsChoice() {
		return []string{}, nil
	}

	if len(options) < MinChoiceOptions {
		return nil, fmt.Errorf("%w: at least %d options are required", ErrInvalidOptions, MinChoiceOptions)
	}
	if qtype == model.QuestionTypeBoolean && len(options) != 2 {
		return nil, fmt.Errorf("%w: boolean questions take exactly 2 options", ErrInvalidOptions)
	}

	out := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for i, o := range options {
		t := strings.TrimSpace(o)
		if t == "" {
			return nil, fmt.Errorf("%w: option %d is blank", ErrInvalidOptions, i+1)
		}
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("%w: option %q is repeated", ErrInvalidOptions, t)
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// DecodeOptions turns the stored option column into a list. Older rows hold a
// JSON string wrapping the encoded list; both forms are accepted. Anything
// else is a configuration error.
func DecodeOptions(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		return list, nil
	}

	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped == "" {
			return []string{}, nil
		}
		if err := json.Unmarshal([]byte(wrapped), &list); err == nil {
			if list == nil {
				list = []string{}
			}
			return list, nil
		}
	}

	return nil, fmt.Errorf("%w: stored options are not a list of strings", ErrInvalidConfig)
}

// EncodeOptions is the inverse of DecodeOptions for writes.
func EncodeOptions(options []string) ([]byte, error) {
	if options == nil {
		options = []string{}
	}
	return json.Marshal(options)
}
