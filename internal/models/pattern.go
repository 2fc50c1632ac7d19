package models

import "time"

// TimeSlot is a wall-clock start/end pair in HH:MM, 24h local time.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RawWeeklyPattern mirrors the persisted pattern shape before
// normalisation. Weekday values may arrive as JSON numbers or strings and
// time slots are keyed by the weekday's string form; ResolvePattern is the
// single place that coerces them.
type RawWeeklyPattern struct {
	ID                    string              `json:"id"`
	CourseInstanceID      string              `json:"course_instance_id"`
	DaysOfWeek            []interface{}       `json:"days_of_week"`
	TimeSlots             map[string]TimeSlot `json:"time_slots"`
	TotalLessons          int                 `json:"total_lessons"`
	LessonDurationMinutes int                 `json:"lesson_duration_minutes"`
}

// WeeklyPattern is the canonical in-memory recurrence rule for one course
// instance. DaysOfWeek is sorted and duplicate-free with values 0 (Sunday)
// through 6 (Saturday), and every listed day has exactly one time slot.
type WeeklyPattern struct {
	ID                    string           `json:"id"`
	CourseInstanceID      string           `json:"course_instance_id"`
	DaysOfWeek            []int            `json:"days_of_week"`
	TimeSlots             map[int]TimeSlot `json:"time_slots"`
	TotalLessons          int              `json:"total_lessons"`
	LessonDurationMinutes int              `json:"lesson_duration_minutes"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// HasDay reports whether the weekday participates in the pattern.
func (p *WeeklyPattern) HasDay(weekday int) bool {
	for _, d := range p.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}

// SlotFor returns the time slot configured for a weekday.
func (p *WeeklyPattern) SlotFor(weekday int) (TimeSlot, bool) {
	slot, ok := p.TimeSlots[weekday]
	return slot, ok
}
