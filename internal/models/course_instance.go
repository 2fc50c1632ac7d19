package models

import "time"

// CourseInstance assigns one course to an institution, instructor and grade
// with its own calendar and lesson mode.
type CourseInstance struct {
	ID            string     `db:"id" json:"id"`
	CourseID      string     `db:"course_id" json:"course_id"`
	InstitutionID string     `db:"institution_id" json:"institution_id"`
	InstructorID  string     `db:"instructor_id" json:"instructor_id"`
	Grade         string     `db:"grade" json:"grade"`
	LessonMode    LessonMode `db:"lesson_mode" json:"lesson_mode"`
	StartDate     time.Time  `db:"start_date" json:"start_date"`
	EndDate       *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseInstanceFilter describes query params for listing instances.
type CourseInstanceFilter struct {
	CourseID      string
	InstitutionID string
	InstructorID  string
	Grade         string
	Page          int
	PageSize      int
}
