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

// OccurrenceRepository persists concrete lesson occurrences ("physical
// schedules").
type OccurrenceRepository struct {
	db *sqlx.DB
}

// NewOccurrenceRepository constructs an occurrence repository.
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// ListByInstance returns an instance's occurrences ordered by date.
func (r *OccurrenceRepository) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error) {
	const query = `SELECT id, course_instance_id, lesson_id, lesson_number, scheduled_start, scheduled_end, created_at, updated_at FROM occurrences WHERE course_instance_id = $1 ORDER BY scheduled_start ASC`
	var occurrences []models.Occurrence
	if err := r.db.SelectContext(ctx, &occurrences, query, courseInstanceID); err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	return occurrences, nil
}

// ListFrom returns occurrences of an instance starting on or after the
// given time, excluding one id, ordered by date. Feeds the postpone
// cascade.
func (r *OccurrenceRepository) ListFrom(ctx context.Context, courseInstanceID string, from time.Time, excludeID string) ([]models.Occurrence, error) {
	const query = `SELECT id, course_instance_id, lesson_id, lesson_number, scheduled_start, scheduled_end, created_at, updated_at FROM occurrences WHERE course_instance_id = $1 AND scheduled_start >= $2 AND id <> $3 ORDER BY scheduled_start ASC`
	var occurrences []models.Occurrence
	if err := r.db.SelectContext(ctx, &occurrences, query, courseInstanceID, from, excludeID); err != nil {
		return nil, fmt.Errorf("list occurrences from date: %w", err)
	}
	return occurrences, nil
}

// FindByID loads an occurrence by id.
func (r *OccurrenceRepository) FindByID(ctx context.Context, id string) (*models.Occurrence, error) {
	const query = `SELECT id, course_instance_id, lesson_id, lesson_number, scheduled_start, scheduled_end, created_at, updated_at FROM occurrences WHERE id = $1`
	var occurrence models.Occurrence
	if err := r.db.GetContext(ctx, &occurrence, query, id); err != nil {
		return nil, err
	}
	return &occurrence, nil
}

// BulkCreate inserts many occurrences within a transaction.
func (r *OccurrenceRepository) BulkCreate(ctx context.Context, occurrences []models.Occurrence) error {
	if len(occurrences) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create occurrences: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range occurrences {
		payload := occurrences[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = tx.NamedExecContext(ctx, `INSERT INTO occurrences (id, course_instance_id, lesson_id, lesson_number, scheduled_start, scheduled_end, created_at, updated_at) VALUES (:id, :course_instance_id, :lesson_id, :lesson_number, :scheduled_start, :scheduled_end, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert occurrence: %w", err)
		}
		occurrences[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create occurrences: %w", err)
	}
	return nil
}

// Update rewrites the schedule fields of one occurrence in place.
func (r *OccurrenceRepository) Update(ctx context.Context, occurrence *models.Occurrence) error {
	occurrence.UpdatedAt = time.Now().UTC()
	const query = `UPDATE occurrences SET lesson_number = :lesson_number, scheduled_start = :scheduled_start, scheduled_end = :scheduled_end, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, occurrence); err != nil {
		return fmt.Errorf("update occurrence: %w", err)
	}
	return nil
}

// DeleteByIDs removes occurrences by id.
func (r *OccurrenceRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete occurrences: %w", err)
	}
	return nil
}

// DeleteByLessonIDs removes every occurrence of the given lessons within
// one instance.
func (r *OccurrenceRepository) DeleteByLessonIDs(ctx context.Context, courseInstanceID string, lessonIDs []string) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE course_instance_id = $1 AND lesson_id = ANY($2)`, courseInstanceID, pq.Array(lessonIDs)); err != nil {
		return fmt.Errorf("delete occurrences by lesson: %w", err)
	}
	return nil
}

// DeleteByInstance removes every occurrence of one course instance.
func (r *OccurrenceRepository) DeleteByInstance(ctx context.Context, courseInstanceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE course_instance_id = $1`, courseInstanceID); err != nil {
		return fmt.Errorf("delete instance occurrences: %w", err)
	}
	return nil
}
