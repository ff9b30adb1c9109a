package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// CourseInput is one (subject, grade, section) tuple submitted during teacher registration.
type CourseInput struct {
	Subject string            `json:"subject" validate:"required,max=64,excludesall=.#$[]/"`
	Grade   models.GradeLevel `json:"grade" validate:"required,max=8,excludesall=.#$[]/"`
	Section string            `json:"section" validate:"required,max=8,excludesall=.#$[]/"`
}

// RegisterTeacherRequest captures POST /register/teacher.
type RegisterTeacherRequest struct {
	Username     string        `json:"username" validate:"required,max=64"`
	Name         string        `json:"name" validate:"required,max=128"`
	Password     string        `json:"password" validate:"required,min=6,max=72"`
	ProfileImage string        `json:"profileImage,omitempty" validate:"omitempty,url"`
	Courses      []CourseInput `json:"courses" validate:"dive"`
}

// RegisterStudentRequest captures POST /register/student.
type RegisterStudentRequest struct {
	Username     string            `json:"username" validate:"required,max=64"`
	Name         string            `json:"name" validate:"required,max=128"`
	Password     string            `json:"password" validate:"required,min=6,max=72"`
	Grade        models.GradeLevel `json:"grade" validate:"required,max=8"`
	Section      string            `json:"section" validate:"required,max=8"`
	AcademicYear string            `json:"academicYear,omitempty" validate:"omitempty,max=16"`
}

// ChildList accepts either a JSON array of student keys or a comma separated string.
type ChildList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *ChildList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = compactChildren(list)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("children must be an array or a comma separated string")
	}
	*l = compactChildren(strings.Split(raw, ","))
	return nil
}

func compactChildren(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// RegisterParentRequest captures POST /register/parent.
type RegisterParentRequest struct {
	Username string    `json:"username" validate:"required,max=64"`
	Name     string    `json:"name" validate:"required,max=128"`
	Password string    `json:"password" validate:"required,min=6,max=72"`
	Children ChildList `json:"children" validate:"required,min=1,dive,excludesall=.#$[]/"`
}

// RegisterSchoolAdminRequest captures the multipart POST /register/school-admin form.
type RegisterSchoolAdminRequest struct {
	Username string `form:"username" validate:"required,max=64"`
	Name     string `form:"name" validate:"required,max=128"`
	Password string `form:"password" validate:"required,min=6,max=72"`
}

// RegistrationResponse is returned by every registration endpoint.
type RegistrationResponse struct {
	UserID       string          `json:"userId"`
	Role         models.UserRole `json:"role"`
	ProfileKey   string          `json:"profileKey"`
	TeacherKey   string          `json:"teacherKey,omitempty"`
	ProfileImage string          `json:"profileImage,omitempty"`
	CourseIDs    []string        `json:"courseIds,omitempty"`
}
