package model

import "time"

// Enrollment links a student to a course. It carries no payload.
type Enrollment struct {
	UserID    int64     `json:"user_id"`
	CourseID  int64     `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EnrollmentRequest is the payload for enrolling or unenrolling a student.
type EnrollmentRequest struct {
	UserID   int64 `json:"user_id" binding:"required,min=1"`
	CourseID int64 `json:"course_id" binding:"required,min=1"`
}
