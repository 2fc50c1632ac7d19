package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// LessonRepository provides persistence for template and instance lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListTemplate returns the course's shared template lessons ordered for
// scheduling (order_index, ties by id).
func (r *LessonRepository) ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error) {
	const query = `SELECT id, course_id, course_instance_id, title, order_index, created_at, updated_at FROM lessons WHERE course_id = $1 AND course_instance_id IS NULL ORDER BY order_index ASC, id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list template lessons: %w", err)
	}
	return lessons, nil
}

// ListByInstance returns lessons bound to one course instance.
func (r *LessonRepository) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error) {
	const query = `SELECT id, course_id, course_instance_id, title, order_index, created_at, updated_at FROM lessons WHERE course_instance_id = $1 ORDER BY order_index ASC, id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseInstanceID); err != nil {
		return nil, fmt.Errorf("list instance lessons: %w", err)
	}
	return lessons, nil
}

// FindByID loads a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	const query = `SELECT id, course_id, course_instance_id, title, order_index, created_at, updated_at FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create stores a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, course_id, course_instance_id, title, order_index, created_at, updated_at) VALUES (:id, :course_id, :course_instance_id, :title, :order_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update modifies a lesson record.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, order_index = :order_index, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// UpdateOrderIndexes rewrites order_index for a batch of lessons within a
// transaction, used when combined mode renumbers instance lessons.
func (r *LessonRepository) UpdateOrderIndexes(ctx context.Context, lessons []models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lesson renumber: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, lesson := range lessons {
		if _, err = tx.ExecContext(ctx, `UPDATE lessons SET order_index = $1, updated_at = $2 WHERE id = $3`, lesson.OrderIndex, now, lesson.ID); err != nil {
			return fmt.Errorf("renumber lesson %s: %w", lesson.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lesson renumber: %w", err)
	}
	return nil
}

// Delete removes a lesson by id.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// DeleteByInstance removes all instance-specific lessons of one course
// instance.
func (r *LessonRepository) DeleteByInstance(ctx context.Context, courseInstanceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE course_instance_id = $1`, courseInstanceID); err != nil {
		return fmt.Errorf("delete instance lessons: %w", err)
	}
	return nil
}
