package model

import "time"

// Course is a teaching unit students enroll in and questionnaires target.
type Course struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Code       string `json:"code" binding:"required,notblank,min=2,max=50"`
	Name       string `json:"name" binding:"required,notblank,min=2,max=255"`
	Department string `json:"department" binding:"omitempty,max=255"`
}
