// Package lifecycle holds the questionnaire state machine.
//
// The only legal moves are draft -> published and published -> closed.
// Closed is terminal.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/unieval/evaluation-backend/internal/model"
)

// ErrIllegalTransition is matched by every *TransitionError.
var ErrIllegalTransition = errors.New("illegal questionnaire transition")

// TransitionError names the current and requested states of a refused move.
type TransitionError struct {
	From model.QuestionnaireStatus
	To   model.QuestionnaireStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move questionnaire from %s to %s", e.From, e.To)
}

// Is lets errors.Is(err, ErrIllegalTransition) match.
func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

var next = map[model.QuestionnaireStatus]model.QuestionnaireStatus{
	model.QuestionnaireStatusDraft:     model.QuestionnaireStatusPublished,
	model.QuestionnaireStatusPublished: model.QuestionnaireStatusClosed,
}

// Transition returns nil when from -> to is allowed, otherwise a *TransitionError.
func Transition(from, to model.QuestionnaireStatus) error {
	if n, ok := next[from]; ok && n == to {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// Editable reports whether content (title, description, deadline, questions)
// may change in status s.
func Editable(s model.QuestionnaireStatus) bool {
	return s == model.QuestionnaireStatusDraft
}

// AcceptsResponses reports whether submissions are allowed in status s.
func AcceptsResponses(s model.QuestionnaireStatus) bool {
	return s == model.QuestionnaireStatusPublished
}

// VisibleTo reports whether a user with role may read a questionnaire in status s.
// Students only see published questionnaires; enrollment is checked separately.
func VisibleTo(role model.Role, s model.QuestionnaireStatus) bool {
	switch role {
	case model.RoleAdmin, model.RoleQualityManager, model.RoleTeacher:
		return true
	case model.RoleStudent:
		return s == model.QuestionnaireStatusPublished
	default:
		return false
	}
}
