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

type courseInstanceRepository interface {
	List(ctx context.Context, filter models.CourseInstanceFilter) ([]models.CourseInstance, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseInstance, error)
	Create(ctx context.Context, instance *models.CourseInstance) error
	Update(ctx context.Context, instance *models.CourseInstance) error
	UpdateLessonMode(ctx context.Context, id string, mode models.LessonMode) error
	Delete(ctx context.Context, id string) error
}

type instancePatternRepository interface {
	GetByCourseInstance(ctx context.Context, courseInstanceID string) (*models.RawWeeklyPattern, error)
	Upsert(ctx context.Context, pattern *models.WeeklyPattern) error
	DeleteByCourseInstance(ctx context.Context, courseInstanceID string) error
}

type instanceLessonRepository interface {
	DeleteByInstance(ctx context.Context, courseInstanceID string) error
}

type instanceOccurrenceRepository interface {
	DeleteByInstance(ctx context.Context, courseInstanceID string) error
}

type instanceReportRepository interface {
	DeleteByInstance(ctx context.Context, courseInstanceID string) error
}

type scheduleApplier interface {
	Apply(ctx context.Context, courseInstanceID string) (*ApplyResult, error)
}

// CreateCourseInstanceRequest holds payload for creating course instances.
type CreateCourseInstanceRequest struct {
	CourseID      string     `json:"course_id" validate:"required"`
	InstitutionID string     `json:"institution_id" validate:"required"`
	InstructorID  string     `json:"instructor_id" validate:"required"`
	Grade         string     `json:"grade"`
	LessonMode    string     `json:"lesson_mode" validate:"required"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       *time.Time `json:"end_date"`
}

// UpdateCourseInstanceRequest holds payload for updating course instances.
type UpdateCourseInstanceRequest struct {
	InstitutionID string     `json:"institution_id" validate:"required"`
	InstructorID  string     `json:"instructor_id" validate:"required"`
	Grade         string     `json:"grade"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       *time.Time `json:"end_date"`
}

// UpsertPatternRequest holds payload for setting an instance's weekly
// pattern. Weekday values tolerate numbers and numeric strings; time slots
// are keyed by the weekday's string form.
type UpsertPatternRequest struct {
	DaysOfWeek            []interface{}              `json:"days_of_week" validate:"required,min=1"`
	TimeSlots             map[string]models.TimeSlot `json:"time_slots" validate:"required"`
	TotalLessons          int                        `json:"total_lessons" validate:"gte=0"`
	LessonDurationMinutes int                        `json:"lesson_duration_minutes" validate:"gte=0"`
}

// CourseInstanceService handles course instance use-cases, including the
// lesson mode switch and pattern management that drive rescheduling.
type CourseInstanceService struct {
	repo        courseInstanceRepository
	patterns    instancePatternRepository
	lessons     instanceLessonRepository
	occurrences instanceOccurrenceRepository
	reports     instanceReportRepository
	scheduler   scheduleApplier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseInstanceService constructs the course instance service.
func NewCourseInstanceService(
	repo courseInstanceRepository,
	patterns instancePatternRepository,
	lessons instanceLessonRepository,
	occurrences instanceOccurrenceRepository,
	reports instanceReportRepository,
	scheduler scheduleApplier,
	validate *validator.Validate,
	logger *zap.Logger,
) *CourseInstanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseInstanceService{
		repo:        repo,
		patterns:    patterns,
		lessons:     lessons,
		occurrences: occurrences,
		reports:     reports,
		scheduler:   scheduler,
		validator:   validate,
		logger:      logger,
	}
}

// List returns course instances and pagination metadata.
func (s *CourseInstanceService) List(ctx context.Context, filter models.CourseInstanceFilter) ([]models.CourseInstance, *models.Pagination, error) {
	instances, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course instances")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return instances, pagination, nil
}

// Get returns one course instance.
func (s *CourseInstanceService) Get(ctx context.Context, id string) (*models.CourseInstance, error) {
	instance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instance")
	}
	return instance, nil
}

// Create registers a new course instance.
func (s *CourseInstanceService) Create(ctx context.Context, req CreateCourseInstanceRequest) (*models.CourseInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course instance payload")
	}
	mode, err := models.ParseLessonMode(req.LessonMode)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}
	instance := &models.CourseInstance{
		CourseID:      req.CourseID,
		InstitutionID: req.InstitutionID,
		InstructorID:  req.InstructorID,
		Grade:         req.Grade,
		LessonMode:    mode,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
	if err := s.repo.Create(ctx, instance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course instance")
	}
	return instance, nil
}

// Update modifies an existing course instance and reapplies its schedule
// when the calendar window moved.
func (s *CourseInstanceService) Update(ctx context.Context, id string, req UpdateCourseInstanceRequest) (*models.CourseInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course instance payload")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}
	instance, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	calendarMoved := !instance.StartDate.Equal(req.StartDate) || !equalDatePtr(instance.EndDate, req.EndDate)

	instance.InstitutionID = req.InstitutionID
	instance.InstructorID = req.InstructorID
	instance.Grade = req.Grade
	instance.StartDate = req.StartDate
	instance.EndDate = req.EndDate
	if err := s.repo.Update(ctx, instance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course instance")
	}

	if calendarMoved && s.scheduler != nil {
		if _, err := s.scheduler.Apply(ctx, id); err != nil {
			s.logger.Warn("schedule reapply after calendar change failed", zap.String("course_instance_id", id), zap.Error(err))
		}
	}
	return instance, nil
}

// SwitchLessonMode changes which lesson collections feed generation and
// immediately resynchronises the schedule.
func (s *CourseInstanceService) SwitchLessonMode(ctx context.Context, id string, rawMode string) (*models.CourseInstance, *ApplyResult, error) {
	mode, err := models.ParseLessonMode(rawMode)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	instance, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if instance.LessonMode == mode {
		return instance, nil, nil
	}

	if err := s.repo.UpdateLessonMode(ctx, id, mode); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to switch lesson mode")
	}
	instance.LessonMode = mode

	var result *ApplyResult
	if s.scheduler != nil {
		result, err = s.scheduler.Apply(ctx, id)
		if err != nil {
			return nil, nil, err
		}
	}
	s.logger.Info("lesson mode switched", zap.String("course_instance_id", id), zap.String("mode", string(mode)))
	return instance, result, nil
}

// GetPattern returns the instance's persisted weekly pattern in canonical
// form.
func (s *CourseInstanceService) GetPattern(ctx context.Context, id string) (*models.WeeklyPattern, error) {
	raw, err := s.patterns.GetByCourseInstance(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly pattern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly pattern")
	}
	return ResolvePattern(*raw)
}

// UpsertPattern validates and stores the instance's weekly pattern, then
// resynchronises the schedule against it.
func (s *CourseInstanceService) UpsertPattern(ctx context.Context, id string, req UpsertPatternRequest) (*models.WeeklyPattern, *ApplyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pattern payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, nil, err
	}

	pattern, err := ResolvePattern(models.RawWeeklyPattern{
		CourseInstanceID:      id,
		DaysOfWeek:            req.DaysOfWeek,
		TimeSlots:             req.TimeSlots,
		TotalLessons:          req.TotalLessons,
		LessonDurationMinutes: req.LessonDurationMinutes,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.patterns.Upsert(ctx, pattern); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store weekly pattern")
	}

	var result *ApplyResult
	if s.scheduler != nil {
		result, err = s.scheduler.Apply(ctx, id)
		if err != nil {
			return nil, nil, err
		}
	}
	return pattern, result, nil
}

// Delete removes a course instance and everything hanging off it, in
// dependency order: reports, occurrences, pattern, instance lessons, then
// the instance itself.
func (s *CourseInstanceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.reports.DeleteByInstance(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instance reports")
	}
	if err := s.occurrences.DeleteByInstance(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instance occurrences")
	}
	if err := s.patterns.DeleteByCourseInstance(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instance pattern")
	}
	if err := s.lessons.DeleteByInstance(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instance lessons")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course instance")
	}
	s.logger.Info("course instance deleted", zap.String("course_instance_id", id))
	return nil
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
