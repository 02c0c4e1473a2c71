package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/middleware"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/response"
	"github.com/unieval/evaluation-backend/internal/service"
	"github.com/unieval/evaluation-backend/internal/validator"
)

// ResponseHandler handles answer submission and the anonymized read paths.
type ResponseHandler struct {
	responseService *service.ResponseService
	log             zerolog.Logger
}

// NewResponseHandler creates a new ResponseHandler.
func NewResponseHandler(responseService *service.ResponseService, log zerolog.Logger) *ResponseHandler {
	return &ResponseHandler{
		responseService: responseService,
		log:             log.With().Str("component", "response_handler").Logger(),
	}
}

// Submit godoc
// POST /api/v1/responses
// Records one answer. The stored row carries a pseudonymous subject token,
// never the caller's id.
func (h *ResponseHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitResponseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.responseService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"response": resp})
}

// SubmitFull godoc
// POST /api/v1/responses/submitFullQuestionnaire
// Records a whole questionnaire in one transaction. On failure nothing is
// stored and error.index names the offending item.
func (h *ResponseHandler) SubmitFull(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitFullQuestionnaireRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	saved, err := h.responseService.SubmitFull(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"responses": saved})
}

// ByQuestionnaire godoc
// GET /api/v1/responses/questionnaire/:id
func (h *ResponseHandler) ByQuestionnaire(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	answers, err := h.responseService.ByQuestionnaire(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"responses": answers})
}

// ByQuestion godoc
// GET /api/v1/responses/question/:id
func (h *ResponseHandler) ByQuestion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	answers, err := h.responseService.ByQuestion(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"responses": answers})
}

// Summary godoc
// GET /api/v1/responses/questionnaire/:id/summary
// Per-question tallies and the number of distinct respondents.
func (h *ResponseHandler) Summary(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	summary, respondents, err := h.responseService.Summary(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"questionnaire_id": id,
		"respondents":      respondents,
		"questions":        summary,
	})
}

// Mine godoc
// GET /api/v1/responses/me/:questionnaire_id
// Returns the caller's own answers to a questionnaire.
func (h *ResponseHandler) Mine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := uuidParam(c, "questionnaire_id")
	if !ok {
		return
	}

	mine, err := h.responseService.Mine(c.Request.Context(), claims.UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"responses": mine})
}
