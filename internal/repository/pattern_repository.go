package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// PatternRepository persists weekly recurrence patterns, one per course
// instance.
type PatternRepository struct {
	db *sqlx.DB
}

// NewPatternRepository constructs a pattern repository.
func NewPatternRepository(db *sqlx.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

type patternRow struct {
	ID                    string         `db:"id"`
	CourseInstanceID      string         `db:"course_instance_id"`
	DaysOfWeek            types.JSONText `db:"days_of_week"`
	TimeSlots             types.JSONText `db:"time_slots"`
	TotalLessons          int            `db:"total_lessons"`
	LessonDurationMinutes int            `db:"lesson_duration_minutes"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

// GetByCourseInstance loads the raw persisted pattern for an instance.
// The JSON columns are decoded without coercion; normalisation is the
// resolver's job.
func (r *PatternRepository) GetByCourseInstance(ctx context.Context, courseInstanceID string) (*models.RawWeeklyPattern, error) {
	const query = `SELECT id, course_instance_id, days_of_week, time_slots, total_lessons, lesson_duration_minutes, created_at, updated_at FROM weekly_patterns WHERE course_instance_id = $1`
	var row patternRow
	if err := r.db.GetContext(ctx, &row, query, courseInstanceID); err != nil {
		return nil, err
	}

	raw := &models.RawWeeklyPattern{
		ID:                    row.ID,
		CourseInstanceID:      row.CourseInstanceID,
		TotalLessons:          row.TotalLessons,
		LessonDurationMinutes: row.LessonDurationMinutes,
	}
	if err := json.Unmarshal(row.DaysOfWeek, &raw.DaysOfWeek); err != nil {
		return nil, fmt.Errorf("decode pattern days_of_week: %w", err)
	}
	if err := json.Unmarshal(row.TimeSlots, &raw.TimeSlots); err != nil {
		return nil, fmt.Errorf("decode pattern time_slots: %w", err)
	}
	return raw, nil
}

// Upsert stores a normalised pattern keyed uniquely by course instance.
func (r *PatternRepository) Upsert(ctx context.Context, pattern *models.WeeklyPattern) error {
	if pattern == nil {
		return fmt.Errorf("pattern payload is nil")
	}
	if pattern.CourseInstanceID == "" {
		return fmt.Errorf("course_instance_id is required")
	}
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}

	daysJSON, err := json.Marshal(pattern.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("encode pattern days_of_week: %w", err)
	}
	slotsByKey := make(map[string]models.TimeSlot, len(pattern.TimeSlots))
	for day, slot := range pattern.TimeSlots {
		slotsByKey[strconv.Itoa(day)] = slot
	}
	slotsJSON, err := json.Marshal(slotsByKey)
	if err != nil {
		return fmt.Errorf("encode pattern time_slots: %w", err)
	}

	now := time.Now().UTC()
	const query = `
INSERT INTO weekly_patterns (id, course_instance_id, days_of_week, time_slots, total_lessons, lesson_duration_minutes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (course_instance_id) DO UPDATE SET days_of_week = EXCLUDED.days_of_week, time_slots = EXCLUDED.time_slots, total_lessons = EXCLUDED.total_lessons, lesson_duration_minutes = EXCLUDED.lesson_duration_minutes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, pattern.ID, pattern.CourseInstanceID, types.JSONText(daysJSON), types.JSONText(slotsJSON), pattern.TotalLessons, pattern.LessonDurationMinutes, now); err != nil {
		return fmt.Errorf("upsert weekly pattern: %w", err)
	}
	return nil
}

// DeleteByCourseInstance removes the pattern of one instance.
func (r *PatternRepository) DeleteByCourseInstance(ctx context.Context, courseInstanceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM weekly_patterns WHERE course_instance_id = $1`, courseInstanceID); err != nil {
		return fmt.Errorf("delete weekly pattern: %w", err)
	}
	return nil
}
