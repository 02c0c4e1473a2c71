package service

import (
	"context"
	"strings"

	"github.com/unieval/evaluation-backend/internal/model"
)

// CourseService manages courses.
type CourseService struct {
	courses CourseStore
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses CourseStore) *CourseService {
	return &CourseService{courses: courses}
}

// List returns every course.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.List(ctx)
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, err
}

// ListForStudent returns the courses a student is enrolled in.
func (s *CourseService) ListForStudent(ctx context.Context, studentID int64) ([]model.Course, error) {
	courses, err := s.courses.ListByStudent(ctx, studentID)
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, err
}

// GetByID retrieves a course.
func (s *CourseService) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	return s.courses.GetByID(ctx, id)
}

// Create inserts a course.
func (s *CourseService) Create(ctx context.Context, req *model.CourseRequest) (*model.Course, error) {
	c := &model.Course{
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update rewrites a course.
func (s *CourseService) Update(ctx context.Context, id int64, req *model.CourseRequest) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Code = strings.TrimSpace(req.Code)
	c.Name = strings.TrimSpace(req.Name)
	c.Department = strings.TrimSpace(req.Department)
	if err := s.courses.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a course that no questionnaire references.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	return s.courses.Delete(ctx, id)
}
