package dto

import "github.com/noah-isme/school-portal-api/internal/models"

// CourseDescriptor is the descriptive triple of a course.
type CourseDescriptor struct {
	Subject string            `json:"subject"`
	Grade   models.GradeLevel `json:"grade"`
	Section string            `json:"section"`
}

// RosterMarks are the marks shown next to a student. Mark100 is the computed total.
type RosterMarks struct {
	Mark20      float64 `json:"mark20"`
	Mark30      float64 `json:"mark30"`
	Mark50      float64 `json:"mark50"`
	Mark100     float64 `json:"mark100"`
	LetterGrade string  `json:"letterGrade"`
}

// RosterStudent is one row of a course roster.
type RosterStudent struct {
	StudentID string      `json:"studentId"`
	Name      string      `json:"name"`
	Username  string      `json:"username"`
	Marks     RosterMarks `json:"marks"`
}

// CourseStudentsResponse is returned by GET /course-students/{courseId}. Course is null for unknown ids.
type CourseStudentsResponse struct {
	Course   *CourseDescriptor `json:"course"`
	Students []RosterStudent   `json:"students"`
}

// TeacherStudentsGroup is the roster of one course taught by a teacher.
type TeacherStudentsGroup struct {
	CourseID string            `json:"courseId"`
	Subject  string            `json:"subject"`
	Grade    models.GradeLevel `json:"grade"`
	Section  string            `json:"section"`
	Students []RosterStudent   `json:"students"`
}

// TeacherStudentsResponse is returned by GET /teacher-students/{teacherKey}.
type TeacherStudentsResponse struct {
	Courses []TeacherStudentsGroup `json:"courses"`
}

// MarkInput carries the three assessment columns. Omitted columns are stored as 0.
type MarkInput struct {
	Mark20 float64 `json:"mark20" validate:"gte=0,lte=20"`
	Mark30 float64 `json:"mark30" validate:"gte=0,lte=30"`
	Mark50 float64 `json:"mark50" validate:"gte=0,lte=50"`
}

// MarkUpdate replaces the marks of one student.
type MarkUpdate struct {
	StudentID string    `json:"studentId" validate:"required,excludesall=.#$[]/"`
	Marks     MarkInput `json:"marks"`
}

// UpdateMarksRequest captures POST /course-update-marks/{courseId}.
type UpdateMarksRequest struct {
	Updates []MarkUpdate `json:"updates" validate:"required,min=1,dive"`
}

// UpdateMarksResponse reports how many records were written.
type UpdateMarksResponse struct {
	CourseID string `json:"courseId"`
	Updated  int    `json:"updated"`
}

// PlacementRequest captures PATCH /students/{studentId}/placement.
type PlacementRequest struct {
	Grade   *models.GradeLevel `json:"grade,omitempty" validate:"omitempty,min=1,max=8"`
	Section *string            `json:"section,omitempty" validate:"omitempty,min=1,max=8"`
}

// PlacementResponse echoes the student's placement after the change.
type PlacementResponse struct {
	StudentID string            `json:"studentId"`
	Grade     models.GradeLevel `json:"grade"`
	Section   string            `json:"section"`
}
