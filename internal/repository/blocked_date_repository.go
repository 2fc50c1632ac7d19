package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// BlockedDateRepository provides persistence for blocked calendar dates.
type BlockedDateRepository struct {
	db *sqlx.DB
}

// NewBlockedDateRepository creates a new blocked date repository.
func NewBlockedDateRepository(db *sqlx.DB) *BlockedDateRepository {
	return &BlockedDateRepository{db: db}
}

// ListAll returns every blocked date record ordered by start date. The
// scheduling engine reads the full set fresh before each generation run.
func (r *BlockedDateRepository) ListAll(ctx context.Context) ([]models.BlockedDate, error) {
	const query = `SELECT id, reason, start_date, end_date, created_at, updated_at FROM blocked_dates ORDER BY start_date ASC`
	var dates []models.BlockedDate
	if err := r.db.SelectContext(ctx, &dates, query); err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	return dates, nil
}

// FindByID loads a blocked date by id.
func (r *BlockedDateRepository) FindByID(ctx context.Context, id string) (*models.BlockedDate, error) {
	const query = `SELECT id, reason, start_date, end_date, created_at, updated_at FROM blocked_dates WHERE id = $1`
	var date models.BlockedDate
	if err := r.db.GetContext(ctx, &date, query, id); err != nil {
		return nil, err
	}
	return &date, nil
}

// Create stores a new blocked date record.
func (r *BlockedDateRepository) Create(ctx context.Context, date *models.BlockedDate) error {
	if date.ID == "" {
		date.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if date.CreatedAt.IsZero() {
		date.CreatedAt = now
	}
	date.UpdatedAt = now

	const query = `INSERT INTO blocked_dates (id, reason, start_date, end_date, created_at, updated_at) VALUES (:id, :reason, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, date); err != nil {
		return fmt.Errorf("create blocked date: %w", err)
	}
	return nil
}

// Update modifies a blocked date record.
func (r *BlockedDateRepository) Update(ctx context.Context, date *models.BlockedDate) error {
	date.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blocked_dates SET reason = :reason, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, date); err != nil {
		return fmt.Errorf("update blocked date: %w", err)
	}
	return nil
}

// Delete removes a blocked date by id.
func (r *BlockedDateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blocked date: %w", err)
	}
	return nil
}
