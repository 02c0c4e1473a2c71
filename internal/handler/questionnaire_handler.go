package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/middleware"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/response"
	"github.com/unieval/evaluation-backend/internal/service"
	"github.com/unieval/evaluation-backend/internal/validator"
)

// QuestionnaireHandler handles questionnaire lifecycle and listing endpoints.
type QuestionnaireHandler struct {
	questionnaireService *service.QuestionnaireService
	log                  zerolog.Logger
}

// NewQuestionnaireHandler creates a new QuestionnaireHandler.
func NewQuestionnaireHandler(questionnaireService *service.QuestionnaireService, log zerolog.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		questionnaireService: questionnaireService,
		log:                  log.With().Str("component", "questionnaire_handler").Logger(),
	}
}

// ListQuestionnaires godoc
// GET /api/v1/questionnaires
// Staff see every questionnaire, optionally narrowed by ?status=. Students
// see published questionnaires of their own courses only.
func (h *QuestionnaireHandler) ListQuestionnaires(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	status := model.QuestionnaireStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"status": "status must be one of draft, published, closed",
		})
		return
	}

	list, pagination, err := h.questionnaireService.List(c.Request.Context(), claims.Actor(), status, page, perPage)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questionnaires": list}, pagination)
}

// GetQuestionnaire godoc
// GET /api/v1/questionnaires/:id
func (h *QuestionnaireHandler) GetQuestionnaire(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	q, err := h.questionnaireService.Get(c.Request.Context(), claims.Actor(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// CreateQuestionnaire godoc
// POST /api/v1/questionnaires
// Creates a draft, or publishes straight away when status is "published".
func (h *QuestionnaireHandler) CreateQuestionnaire(c *gin.Context) {
	var req model.CreateQuestionnaireRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionnaireService.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"questionnaire": q})
}

// UpdateQuestionnaire godoc
// PUT /api/v1/questionnaires/:id
// Only drafts can be edited.
func (h *QuestionnaireHandler) UpdateQuestionnaire(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateQuestionnaireRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionnaireService.Update(c.Request.Context(), id, &req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// PublishQuestionnaire godoc
// PUT /api/v1/questionnaires/:id/publish
// Moves a draft to published, warms the paper cache and schedules the
// enrolled-student notifications.
func (h *QuestionnaireHandler) PublishQuestionnaire(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	q, err := h.questionnaireService.Publish(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// CloseQuestionnaire godoc
// PUT /api/v1/questionnaires/:id/close
func (h *QuestionnaireHandler) CloseQuestionnaire(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	q, err := h.questionnaireService.Close(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questionnaire": q})
}

// DeleteQuestionnaire godoc
// DELETE /api/v1/questionnaires/:id
// Removes the questionnaire with its questions and responses.
func (h *QuestionnaireHandler) DeleteQuestionnaire(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.questionnaireService.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// GetPaper godoc
// GET /api/v1/questionnaires/:id/paper
// Returns the student-facing form of a published questionnaire.
func (h *QuestionnaireHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	paper, err := h.questionnaireService.Paper(c.Request.Context(), claims.UserID, id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}
