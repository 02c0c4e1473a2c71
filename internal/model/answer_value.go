package model

import (
	"bytes"
	"encoding/json"
)

type answerShape int

const (
	answerAbsent answerShape = iota
	answerText
	answerList
	answerMalformed
)

// AnswerValue is a submitted answer: either a single string or a list of
// strings. Any other JSON shape decodes without error and is rejected later
// by the answer validator, so the caller gets an answer-level reason rather
// than a generic payload error.
type AnswerValue struct {
	shape   answerShape
	text    string
	choices []string
}

// TextAnswer builds a single-string answer.
func TextAnswer(s string) AnswerValue {
	return AnswerValue{shape: answerText, text: s}
}

// ListAnswer builds a list answer.
func ListAnswer(choices ...string) AnswerValue {
	if choices == nil {
		choices = []string{}
	}
	return AnswerValue{shape: answerList, choices: choices}
}

// IsAbsent reports whether no answer was supplied (missing or null).
func (v AnswerValue) IsAbsent() bool { return v.shape == answerAbsent }

// IsText reports whether the answer is a single string.
func (v AnswerValue) IsText() bool { return v.shape == answerText }

// IsList reports whether the answer is a list of strings.
func (v AnswerValue) IsList() bool { return v.shape == answerList }

// Text returns the single-string answer, or "" for other shapes.
func (v AnswerValue) Text() string { return v.text }

// Choices returns the list answer, or nil for other shapes.
func (v AnswerValue) Choices() []string { return v.choices }

// UnmarshalJSON implements json.Unmarshaler.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*v = TextAnswer(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		*v = ListAnswer(list...)
		return nil
	}

	*v = AnswerValue{shape: answerMalformed}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.shape {
	case answerText:
		return json.Marshal(v.text)
	case answerList:
		return json.Marshal(v.choices)
	default:
		return []byte("null"), nil
	}
}

// Encode returns the storage form: the string itself, or the JSON-encoded list.
func (v AnswerValue) Encode() (string, error) {
	if v.shape == answerList {
		b, err := json.Marshal(v.choices)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return v.text, nil
}
