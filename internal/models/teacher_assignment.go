package models

import "time"

// TeacherAssignment links a teacher to a course. At most one assignment exists per course.
type TeacherAssignment struct {
	ID         string    `json:"-"`
	TeacherID  string    `json:"teacherId"`
	CourseID   string    `json:"courseId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// CourseClaim is the uniqueness gate written before an assignment. Its row key is the course id.
type CourseClaim struct {
	TeacherID string    `json:"teacherId"`
	ClaimedAt time.Time `json:"claimedAt"`
}
