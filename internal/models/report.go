package models

import "time"

// LessonReport records what happened during one occurrence. Reports are
// keyed to the occurrence id and must be removed before their occurrence
// can be deleted.
type LessonReport struct {
	ID               string    `db:"id" json:"id"`
	OccurrenceID     string    `db:"occurrence_id" json:"occurrence_id"`
	CourseInstanceID string    `db:"course_instance_id" json:"course_instance_id"`
	LessonID         string    `db:"lesson_id" json:"lesson_id"`
	Summary          string    `db:"summary" json:"summary"`
	AttendanceCount  int       `db:"attendance_count" json:"attendance_count"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
