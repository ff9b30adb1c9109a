package models

import "time"

// Mark ceilings for the three assessment columns.
const (
	Mark20Max = 20
	Mark30Max = 30
	Mark50Max = 50
)

// ClassMark is stored at ClassMarks/{courseId}/{studentId}. An absent record means all zeros.
type ClassMark struct {
	Mark20    float64    `json:"mark20"`
	Mark30    float64    `json:"mark30"`
	Mark50    float64    `json:"mark50"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
}

// Total is the score out of 100.
func (m ClassMark) Total() float64 {
	return m.Mark20 + m.Mark30 + m.Mark50
}

// LetterGrade maps a total out of 100 to A-F.
func LetterGrade(total float64) string {
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}
