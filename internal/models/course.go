package models

import "time"

// Course is a reusable curriculum template owned by the program, not by a
// single institution. Its template lessons are shared across instances.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Subject     string    `db:"subject" json:"subject"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	Search   string
	Subject  string
	Active   *bool
	Page     int
	PageSize int
}
