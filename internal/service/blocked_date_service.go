package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-admin-api/internal/models"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

type blockedDateRepository interface {
	ListAll(ctx context.Context) ([]models.BlockedDate, error)
	FindByID(ctx context.Context, id string) (*models.BlockedDate, error)
	Create(ctx context.Context, date *models.BlockedDate) error
	Update(ctx context.Context, date *models.BlockedDate) error
	Delete(ctx context.Context, id string) error
}

// BlockedDateRequest holds payload for creating or updating blocked dates.
type BlockedDateRequest struct {
	Reason    string     `json:"reason" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
}

// BlockedDateService handles blocked date use-cases. Mutations need no
// explicit resync: the engine reads blocked dates fresh before every
// generation and postponement.
type BlockedDateService struct {
	repo      blockedDateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlockedDateService constructs the blocked date service.
func NewBlockedDateService(repo blockedDateRepository, validate *validator.Validate, logger *zap.Logger) *BlockedDateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockedDateService{repo: repo, validator: validate, logger: logger}
}

// List returns all blocked dates.
func (s *BlockedDateService) List(ctx context.Context) ([]models.BlockedDate, error) {
	dates, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocked dates")
	}
	return dates, nil
}

// Get returns one blocked date.
func (s *BlockedDateService) Get(ctx context.Context, id string) (*models.BlockedDate, error) {
	date, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blocked date not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked date")
	}
	return date, nil
}

// Create registers a new blocked date or range.
func (s *BlockedDateService) Create(ctx context.Context, req BlockedDateRequest) (*models.BlockedDate, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	date := &models.BlockedDate{
		Reason:    req.Reason,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.repo.Create(ctx, date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blocked date")
	}
	return date, nil
}

// Update modifies a blocked date.
func (s *BlockedDateService) Update(ctx context.Context, id string, req BlockedDateRequest) (*models.BlockedDate, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	date, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	date.Reason = req.Reason
	date.StartDate = req.StartDate
	date.EndDate = req.EndDate
	if err := s.repo.Update(ctx, date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blocked date")
	}
	return date, nil
}

// Delete removes a blocked date.
func (s *BlockedDateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete blocked date")
	}
	return nil
}

func (s *BlockedDateService) validate(req BlockedDateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blocked date payload")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}
	return nil
}
