package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-admin-api/internal/models"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

type reportRepository interface {
	ListByInstance(ctx context.Context, courseInstanceID string) ([]models.LessonReport, error)
	ListByOccurrence(ctx context.Context, occurrenceID string) ([]models.LessonReport, error)
	FindByID(ctx context.Context, id string) (*models.LessonReport, error)
	Create(ctx context.Context, report *models.LessonReport) error
	Update(ctx context.Context, report *models.LessonReport) error
	Delete(ctx context.Context, id string) error
}

type reportOccurrenceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Occurrence, error)
}

// CreateReportRequest holds payload for filing a lesson report.
type CreateReportRequest struct {
	OccurrenceID    string `json:"occurrence_id" validate:"required"`
	Summary         string `json:"summary" validate:"required"`
	AttendanceCount int    `json:"attendance_count" validate:"gte=0"`
	CreatedBy       string `json:"created_by" validate:"required"`
}

// UpdateReportRequest holds payload for amending a lesson report.
type UpdateReportRequest struct {
	Summary         string `json:"summary" validate:"required"`
	AttendanceCount int    `json:"attendance_count" validate:"gte=0"`
}

// ReportService handles lesson report use-cases.
type ReportService struct {
	repo        reportRepository
	occurrences reportOccurrenceRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo reportRepository, occurrences reportOccurrenceRepository, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, occurrences: occurrences, validator: validate, logger: logger}
}

// ListByInstance returns an instance's reports.
func (s *ReportService) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.LessonReport, error) {
	reports, err := s.repo.ListByInstance(ctx, courseInstanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// ListByOccurrence returns the reports filed against one occurrence.
func (s *ReportService) ListByOccurrence(ctx context.Context, occurrenceID string) ([]models.LessonReport, error) {
	reports, err := s.repo.ListByOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrence reports")
	}
	return reports, nil
}

// Get returns one report.
func (s *ReportService) Get(ctx context.Context, id string) (*models.LessonReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// Create files a report against an existing occurrence.
func (s *ReportService) Create(ctx context.Context, req CreateReportRequest) (*models.LessonReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	occurrence, err := s.occurrences.FindByID(ctx, req.OccurrenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}

	report := &models.LessonReport{
		OccurrenceID:     occurrence.ID,
		CourseInstanceID: occurrence.CourseInstanceID,
		LessonID:         occurrence.LessonID,
		Summary:          req.Summary,
		AttendanceCount:  req.AttendanceCount,
		CreatedBy:        req.CreatedBy,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	return report, nil
}

// Update amends a report's content.
func (s *ReportService) Update(ctx context.Context, id string, req UpdateReportRequest) (*models.LessonReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Summary = req.Summary
	report.AttendanceCount = req.AttendanceCount
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	return report, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	return nil
}
