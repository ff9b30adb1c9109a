package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GradeLevel is a school grade such as "5" or "10". Clients send it as a JSON number or a string;
// it is always held as a trimmed string so every comparison sees one representation.
type GradeLevel string

// UnmarshalJSON accepts both `5` and `"5"`.
func (g *GradeLevel) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*g = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*g = GradeLevel(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("grade must be a string or a number")
	}
	*g = GradeLevel(n.String())
	return nil
}

func (g GradeLevel) String() string { return string(g) }

// NormalizeSection returns the canonical, upper-case section label.
func NormalizeSection(section string) string {
	return strings.ToUpper(strings.TrimSpace(section))
}

// StudentStatus values.
const (
	StudentStatusActive = "active"
)

// Student is the role row of a student user. Its row key is the studentId used by ClassMarks.
type Student struct {
	ID           string     `json:"-"`
	UserID       string     `json:"userId"`
	AcademicYear string     `json:"academicYear"`
	Grade        GradeLevel `json:"grade"`
	Section      string     `json:"section"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// InClass reports whether the student sits in the given grade and section.
func (s Student) InClass(grade GradeLevel, section string) bool {
	return s.Grade == grade && strings.EqualFold(strings.TrimSpace(s.Section), strings.TrimSpace(section))
}
