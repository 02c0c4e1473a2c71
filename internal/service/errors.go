package service

import (
	"errors"

	"github.com/unieval/evaluation-backend/internal/repository"
)

// Domain errors. Not-found and duplicate errors alias the repository
// sentinels so callers match one value whichever layer produced it.
var (
	ErrNotFound           = repository.ErrNotFound
	ErrDuplicateResponse  = repository.ErrDuplicateResponse
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotEnrolled        = errors.New("student is not enrolled in the questionnaire's course")
	ErrNotStudent         = errors.New("only students can be enrolled")
	ErrNotPublished       = errors.New("questionnaire is not published")
	ErrDeadlinePassed     = errors.New("questionnaire deadline has passed")
	ErrNotDraft           = errors.New("questionnaire is not a draft")
	ErrQuestionMismatch   = errors.New("question does not belong to the questionnaire")
	ErrInvalidRole        = errors.New("unknown role")
)
