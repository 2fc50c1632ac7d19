package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// CourseInstanceRepository provides persistence for course instances.
type CourseInstanceRepository struct {
	db *sqlx.DB
}

// NewCourseInstanceRepository creates a new course instance repository.
func NewCourseInstanceRepository(db *sqlx.DB) *CourseInstanceRepository {
	return &CourseInstanceRepository{db: db}
}

// List returns course instances with optional filtering and pagination.
func (r *CourseInstanceRepository) List(ctx context.Context, filter models.CourseInstanceFilter) ([]models.CourseInstance, int, error) {
	base := "FROM course_instances WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.InstitutionID != "" {
		conditions = append(conditions, fmt.Sprintf("institution_id = $%d", len(args)+1))
		args = append(args, filter.InstitutionID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, course_id, institution_id, instructor_id, grade, lesson_mode, start_date, end_date, created_at, updated_at %s ORDER BY start_date DESC LIMIT %d OFFSET %d", base, size, offset)
	var instances []models.CourseInstance
	if err := r.db.SelectContext(ctx, &instances, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course instances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course instances: %w", err)
	}

	return instances, total, nil
}

// ListByCourse returns every instance of a course.
func (r *CourseInstanceRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseInstance, error) {
	const query = `SELECT id, course_id, institution_id, instructor_id, grade, lesson_mode, start_date, end_date, created_at, updated_at FROM course_instances WHERE course_id = $1 ORDER BY start_date DESC`
	var instances []models.CourseInstance
	if err := r.db.SelectContext(ctx, &instances, query, courseID); err != nil {
		return nil, fmt.Errorf("list course instances by course: %w", err)
	}
	return instances, nil
}

// FindByID loads a course instance by id.
func (r *CourseInstanceRepository) FindByID(ctx context.Context, id string) (*models.CourseInstance, error) {
	const query = `SELECT id, course_id, institution_id, instructor_id, grade, lesson_mode, start_date, end_date, created_at, updated_at FROM course_instances WHERE id = $1`
	var instance models.CourseInstance
	if err := r.db.GetContext(ctx, &instance, query, id); err != nil {
		return nil, err
	}
	return &instance, nil
}

// Create stores a new course instance record.
func (r *CourseInstanceRepository) Create(ctx context.Context, instance *models.CourseInstance) error {
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}
	instance.UpdatedAt = now

	const query = `INSERT INTO course_instances (id, course_id, institution_id, instructor_id, grade, lesson_mode, start_date, end_date, created_at, updated_at) VALUES (:id, :course_id, :institution_id, :instructor_id, :grade, :lesson_mode, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instance); err != nil {
		return fmt.Errorf("create course instance: %w", err)
	}
	return nil
}

// Update modifies a course instance record.
func (r *CourseInstanceRepository) Update(ctx context.Context, instance *models.CourseInstance) error {
	instance.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_instances SET course_id = :course_id, institution_id = :institution_id, instructor_id = :instructor_id, grade = :grade, lesson_mode = :lesson_mode, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, instance); err != nil {
		return fmt.Errorf("update course instance: %w", err)
	}
	return nil
}

// UpdateLessonMode switches the lesson mode for an instance.
func (r *CourseInstanceRepository) UpdateLessonMode(ctx context.Context, id string, mode models.LessonMode) error {
	const query = `UPDATE course_instances SET lesson_mode = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, mode, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update course instance lesson mode: %w", err)
	}
	return nil
}

// Delete removes a course instance by id.
func (r *CourseInstanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_instances WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course instance: %w", err)
	}
	return nil
}
