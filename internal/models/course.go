package models

import (
	"strings"
	"time"
)

// Course is keyed by a deterministic id derived from subject, grade and section.
type Course struct {
	ID        string     `json:"-"`
	Name      string     `json:"name"`
	Subject   string     `json:"subject"`
	Grade     GradeLevel `json:"grade"`
	Section   string     `json:"section"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CourseID derives the course key: "course_" + lower(subject) + "_" + grade + upper(section).
func CourseID(subject string, grade GradeLevel, section string) string {
	return "course_" + strings.ToLower(strings.TrimSpace(subject)) + "_" + strings.TrimSpace(string(grade)) + NormalizeSection(section)
}
