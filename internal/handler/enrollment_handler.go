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

// EnrollmentHandler handles enrollment endpoints.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
	courseService     *service.CourseService
	log               zerolog.Logger
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService, courseService *service.CourseService, log zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		courseService:     courseService,
		log:               log.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Enroll godoc
// POST /api/v1/enrollments
// Enrolls a student in a course. Enrolling twice is a conflict.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req model.EnrollmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.enrollmentService.Enroll(c.Request.Context(), req.UserID, req.CourseID); err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"enrollment": gin.H{
			"user_id":   req.UserID,
			"course_id": req.CourseID,
		},
	})
}

// Unenroll godoc
// DELETE /api/v1/enrollments
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	var req model.EnrollmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.enrollmentService.Unenroll(c.Request.Context(), req.UserID, req.CourseID); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// MyCourses godoc
// GET /api/v1/enrollments/me
// Lists the courses the calling student is enrolled in.
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courses, err := h.courseService.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}
