package models

import (
	"fmt"
	"strings"
	"time"
)

// LessonMode selects which lesson collections feed schedule generation for
// a course instance.
type LessonMode string

const (
	// LessonModeTemplate schedules only the course's shared template lessons.
	LessonModeTemplate LessonMode = "TEMPLATE"
	// LessonModeCustomOnly schedules only instance-specific lessons.
	LessonModeCustomOnly LessonMode = "CUSTOM_ONLY"
	// LessonModeCombined schedules template lessons followed by
	// instance-specific lessons.
	LessonModeCombined LessonMode = "COMBINED"
)

// ParseLessonMode validates and normalises a lesson mode string.
func ParseLessonMode(raw string) (LessonMode, error) {
	switch LessonMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case LessonModeTemplate:
		return LessonModeTemplate, nil
	case LessonModeCustomOnly:
		return LessonModeCustomOnly, nil
	case LessonModeCombined:
		return LessonModeCombined, nil
	default:
		return "", fmt.Errorf("unknown lesson mode %q", raw)
	}
}

// Lesson is one unit of curriculum content. A nil CourseInstanceID marks a
// template lesson shared by every instance of the course; a non-nil value
// binds the lesson to exactly one instance.
type Lesson struct {
	ID               string    `db:"id" json:"id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	CourseInstanceID *string   `db:"course_instance_id" json:"course_instance_id,omitempty"`
	Title            string    `db:"title" json:"title"`
	OrderIndex       int       `db:"order_index" json:"order_index"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// IsTemplate reports whether the lesson belongs to the course template.
func (l Lesson) IsTemplate() bool {
	return l.CourseInstanceID == nil
}
