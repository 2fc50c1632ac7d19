package models

import "time"

// Occurrence is one concrete dated meeting for one lesson within one
// course instance ("physical schedule"). LessonNumber is the 1-based
// position of the lesson in the active lesson sequence.
type Occurrence struct {
	ID               string    `db:"id" json:"id"`
	CourseInstanceID string    `db:"course_instance_id" json:"course_instance_id"`
	LessonID         string    `db:"lesson_id" json:"lesson_id"`
	LessonNumber     int       `db:"lesson_number" json:"lesson_number"`
	ScheduledStart   time.Time `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd     time.Time `db:"scheduled_end" json:"scheduled_end"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
