package dto

import "github.com/noah-isme/school-portal-api/internal/models"

// TeacherCourse is one course taught by a teacher.
type TeacherCourse struct {
	CourseID string            `json:"courseId"`
	Subject  string            `json:"subject"`
	Grade    models.GradeLevel `json:"grade"`
	Section  string            `json:"section"`
}

// TeacherCoursesResponse is returned by GET /teacher-courses/{teacherKey}.
type TeacherCoursesResponse struct {
	Courses []TeacherCourse `json:"courses"`
}

// TakenSubjectsResponse is returned by GET /taken-subjects/{grade}/{section}.
type TakenSubjectsResponse struct {
	TakenSubjects []string `json:"takenSubjects"`
}

// CourseSummary is a catalog entry with its assigned teacher, if any.
type CourseSummary struct {
	CourseID    string            `json:"courseId"`
	Name        string            `json:"name"`
	Subject     string            `json:"subject"`
	Grade       models.GradeLevel `json:"grade"`
	Section     string            `json:"section"`
	TeacherKey  string            `json:"teacherKey,omitempty"`
	TeacherName string            `json:"teacherName,omitempty"`
}

// CourseListResponse wraps the catalog listing.
type CourseListResponse struct {
	Courses []CourseSummary `json:"courses"`
}
