package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// ReportRepository provides persistence for lesson reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListByInstance returns an instance's reports ordered by creation time.
func (r *ReportRepository) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.LessonReport, error) {
	const query = `SELECT id, occurrence_id, course_instance_id, lesson_id, summary, attendance_count, created_by, created_at, updated_at FROM lesson_reports WHERE course_instance_id = $1 ORDER BY created_at ASC`
	var reports []models.LessonReport
	if err := r.db.SelectContext(ctx, &reports, query, courseInstanceID); err != nil {
		return nil, fmt.Errorf("list lesson reports: %w", err)
	}
	return reports, nil
}

// ListByOccurrence returns the reports filed against one occurrence.
func (r *ReportRepository) ListByOccurrence(ctx context.Context, occurrenceID string) ([]models.LessonReport, error) {
	const query = `SELECT id, occurrence_id, course_instance_id, lesson_id, summary, attendance_count, created_by, created_at, updated_at FROM lesson_reports WHERE occurrence_id = $1 ORDER BY created_at ASC`
	var reports []models.LessonReport
	if err := r.db.SelectContext(ctx, &reports, query, occurrenceID); err != nil {
		return nil, fmt.Errorf("list occurrence reports: %w", err)
	}
	return reports, nil
}

// FindByID loads a report by id.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.LessonReport, error) {
	const query = `SELECT id, occurrence_id, course_instance_id, lesson_id, summary, attendance_count, created_by, created_at, updated_at FROM lesson_reports WHERE id = $1`
	var report models.LessonReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create stores a new lesson report.
func (r *ReportRepository) Create(ctx context.Context, report *models.LessonReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	const query = `INSERT INTO lesson_reports (id, occurrence_id, course_instance_id, lesson_id, summary, attendance_count, created_by, created_at, updated_at) VALUES (:id, :occurrence_id, :course_instance_id, :lesson_id, :summary, :attendance_count, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create lesson report: %w", err)
	}
	return nil
}

// Update modifies a lesson report.
func (r *ReportRepository) Update(ctx context.Context, report *models.LessonReport) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_reports SET summary = :summary, attendance_count = :attendance_count, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("update lesson report: %w", err)
	}
	return nil
}

// DeleteByOccurrenceIDs removes reports of the given occurrences. Runs
// ahead of occurrence deletes so foreign keys never dangle.
func (r *ReportRepository) DeleteByOccurrenceIDs(ctx context.Context, occurrenceIDs []string) error {
	if len(occurrenceIDs) == 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lesson_reports WHERE occurrence_id = ANY($1)`, pq.Array(occurrenceIDs)); err != nil {
		return fmt.Errorf("delete reports by occurrence: %w", err)
	}
	return nil
}

// DeleteByInstance removes every report of one course instance.
func (r *ReportRepository) DeleteByInstance(ctx context.Context, courseInstanceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lesson_reports WHERE course_instance_id = $1`, courseInstanceID); err != nil {
		return fmt.Errorf("delete instance reports: %w", err)
	}
	return nil
}

// Delete removes a report by id.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lesson_reports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson report: %w", err)
	}
	return nil
}
