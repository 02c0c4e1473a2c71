package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/answer"
	"github.com/unieval/evaluation-backend/internal/lifecycle"
	"github.com/unieval/evaluation-backend/internal/repository"
	"github.com/unieval/evaluation-backend/internal/response"
	"github.com/unieval/evaluation-backend/internal/service"
)

// errorStatus maps a domain error to its HTTP status and error code.
// Anything unrecognised is an internal error.
func errorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrQuestionMismatch):
		return http.StatusNotFound, response.ErrNotFound

	case errors.Is(err, answer.ErrInvalidAnswer):
		return http.StatusBadRequest, response.ErrInvalidAnswer
	case errors.Is(err, answer.ErrInvalidOptions):
		return http.StatusBadRequest, response.ErrInvalidOptions
	case errors.Is(err, service.ErrNotStudent), errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, answer.ErrInvalidConfig):
		return http.StatusInternalServerError, response.ErrQuestionConfigInvalid

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrSessionInvalidated):
		return http.StatusUnauthorized, response.ErrSessionInvalidated

	case errors.Is(err, service.ErrNotEnrolled):
		return http.StatusForbidden, response.ErrNotEnrolled
	case errors.Is(err, service.ErrNotDraft):
		return http.StatusForbidden, response.ErrQuestionnaireNotDraft
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, response.ErrForbidden

	case errors.Is(err, lifecycle.ErrIllegalTransition):
		return http.StatusConflict, response.ErrIllegalTransition
	case errors.Is(err, service.ErrNotPublished):
		return http.StatusConflict, response.ErrQuestionnaireNotPublished
	case errors.Is(err, service.ErrDeadlinePassed):
		return http.StatusConflict, response.ErrDeadlinePassed
	case errors.Is(err, service.ErrDuplicateResponse):
		return http.StatusConflict, response.ErrDuplicateResponse
	case errors.Is(err, repository.ErrDuplicateEmail),
		errors.Is(err, repository.ErrDuplicateCode),
		errors.Is(err, repository.ErrAlreadyEnrolled):
		return http.StatusConflict, response.ErrConflict
	case errors.Is(err, repository.ErrReferenced):
		return http.StatusConflict, response.ErrDependencyExists
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// fail writes the error envelope for err. Internal errors are logged; their
// text never reaches the client.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}

	var batchErr *repository.BatchError
	if errors.As(err, &batchErr) {
		response.FailAtIndex(c, status, code, batchErr.Index)
		return
	}
	response.Fail(c, status, code)
}

// uuidParam parses a UUID path parameter, writing a 400 when malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// int64Param parses a numeric path parameter, writing a 400 when malformed.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
