package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-admin-api/internal/models"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

type lessonRepository interface {
	ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error)
	ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	UpdateOrderIndexes(ctx context.Context, lessons []models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type lessonInstanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseInstance, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseInstance, error)
}

type resyncEnqueuer interface {
	Enqueue(courseInstanceID string) error
}

// CreateLessonRequest holds payload for creating lessons. A nil
// CourseInstanceID creates a template lesson shared by every instance.
type CreateLessonRequest struct {
	CourseID         string  `json:"course_id" validate:"required"`
	CourseInstanceID *string `json:"course_instance_id"`
	Title            string  `json:"title" validate:"required"`
	OrderIndex       int     `json:"order_index" validate:"gte=0"`
}

// UpdateLessonRequest holds payload for updating lessons.
type UpdateLessonRequest struct {
	Title      string `json:"title" validate:"required"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

// LessonService handles lesson use-cases. Every mutation queues schedule
// resyncs for the instances it affects: template changes touch all
// instances of the course, instance lesson changes only their own.
type LessonService struct {
	repo      lessonRepository
	instances lessonInstanceRepository
	resync    resyncEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs the lesson service.
func NewLessonService(repo lessonRepository, instances lessonInstanceRepository, resync resyncEnqueuer, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, instances: instances, resync: resync, validator: validate, logger: logger}
}

// ListTemplate returns a course's template lessons in schedule order.
func (s *LessonService) ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error) {
	lessons, err := s.repo.ListTemplate(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list template lessons")
	}
	return lessons, nil
}

// ListByInstance returns an instance's own lessons in schedule order.
func (s *LessonService) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error) {
	lessons, err := s.repo.ListByInstance(ctx, courseInstanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instance lessons")
	}
	return lessons, nil
}

// Get returns one lesson.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create registers a new lesson and queues schedule resyncs.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	lesson := &models.Lesson{
		CourseID:         req.CourseID,
		CourseInstanceID: req.CourseInstanceID,
		Title:            req.Title,
		OrderIndex:       req.OrderIndex,
	}

	if req.CourseInstanceID != nil {
		instance, err := s.instances.FindByID(ctx, *req.CourseInstanceID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course instance not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instance")
		}
		if instance.CourseID != req.CourseID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "lesson course does not match instance course")
		}
	}

	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	if err := s.afterMutation(ctx, lesson); err != nil {
		s.logger.Warn("post-create lesson sync failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
	}
	return lesson, nil
}

// Update modifies a lesson and queues schedule resyncs.
func (s *LessonService) Update(ctx context.Context, id string, req UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lesson.Title = req.Title
	lesson.OrderIndex = req.OrderIndex
	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	if err := s.afterMutation(ctx, lesson); err != nil {
		s.logger.Warn("post-update lesson sync failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
	}
	return lesson, nil
}

// Delete removes a lesson and queues schedule resyncs; the sync plan for
// each affected instance drops the lesson's occurrence and its reports.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	lesson, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	if err := s.afterMutation(ctx, lesson); err != nil {
		s.logger.Warn("post-delete lesson sync failed", zap.String("lesson_id", id), zap.Error(err))
	}
	return nil
}

// afterMutation renumbers combined-mode instance lessons where needed and
// fans out resync jobs to every instance the change can reschedule.
func (s *LessonService) afterMutation(ctx context.Context, lesson *models.Lesson) error {
	if lesson.IsTemplate() {
		instances, err := s.instances.ListByCourse(ctx, lesson.CourseID)
		if err != nil {
			return err
		}
		for _, instance := range instances {
			if instance.LessonMode == models.LessonModeCustomOnly {
				continue
			}
			if instance.LessonMode == models.LessonModeCombined {
				if err := s.renumberCombined(ctx, &instance); err != nil {
					return err
				}
			}
			if s.resync != nil {
				if err := s.resync.Enqueue(instance.ID); err != nil {
					return err
				}
			}
		}
		return nil
	}

	instance, err := s.instances.FindByID(ctx, *lesson.CourseInstanceID)
	if err != nil {
		return err
	}
	if instance.LessonMode == models.LessonModeCombined {
		if err := s.renumberCombined(ctx, instance); err != nil {
			return err
		}
	}
	if s.resync != nil {
		return s.resync.Enqueue(instance.ID)
	}
	return nil
}

// renumberCombined reindexes instance lessons after the template block so
// the stored order matches the combined schedule order.
func (s *LessonService) renumberCombined(ctx context.Context, instance *models.CourseInstance) error {
	templateLessons, err := s.repo.ListTemplate(ctx, instance.CourseID)
	if err != nil {
		return err
	}
	instanceLessons, err := s.repo.ListByInstance(ctx, instance.ID)
	if err != nil {
		return err
	}
	renumbered := RenumberCombined(templateLessons, instanceLessons)
	return s.repo.UpdateOrderIndexes(ctx, renumbered)
}
