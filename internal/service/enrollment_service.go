package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
)

// EnrollmentService is the enrollment gate: it answers whether a student may
// interact with a course's questionnaires, and manages the relation.
type EnrollmentService struct {
	enrollments    EnrollmentStore
	users          UserStore
	questionnaires QuestionnaireStore
	log            zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(enrollments EnrollmentStore, users UserStore, questionnaires QuestionnaireStore, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		enrollments:    enrollments,
		users:          users,
		questionnaires: questionnaires,
		log:            log.With().Str("component", "enrollment_service").Logger(),
	}
}

// IsEnrolled reports whether the student is enrolled in the course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	return s.enrollments.Exists(ctx, studentID, courseID)
}

// IsEnrolledInQuestionnaire reports whether the student is enrolled in the
// course the questionnaire targets. An unknown questionnaire yields ErrNotFound.
func (s *EnrollmentService) IsEnrolledInQuestionnaire(ctx context.Context, studentID int64, questionnaireID uuid.UUID) (bool, error) {
	q, err := s.questionnaires.GetByID(ctx, questionnaireID)
	if err != nil {
		return false, err
	}
	return s.enrollments.Exists(ctx, studentID, q.CourseID)
}

// Enroll adds a student to a course.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user.Role != model.RoleStudent {
		return ErrNotStudent
	}

	if err := s.enrollments.Create(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}
		return err
	}

	s.log.Info().Int64("user_id", userID).Int64("course_id", courseID).Msg("Student enrolled")
	return nil
}

// Unenroll removes a student from a course. Existing responses stay.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID int64) error {
	if err := s.enrollments.Delete(ctx, userID, courseID); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Int64("course_id", courseID).Msg("Student unenrolled")
	return nil
}
