package models

import "time"

// TeacherStatus values.
const (
	TeacherStatusActive = "active"
)

// Teacher is the role row of a teacher user. Its row key is the teacherKey.
type Teacher struct {
	ID           string    `json:"-"`
	UserID       string    `json:"userId"`
	Status       string    `json:"status"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
