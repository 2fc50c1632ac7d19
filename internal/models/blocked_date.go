package models

import "time"

// BlockedDate marks an administratively blocked calendar day or inclusive
// day range. A nil EndDate means the record blocks a single day.
type BlockedDate struct {
	ID        string     `db:"id" json:"id"`
	Reason    string     `db:"reason" json:"reason"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
