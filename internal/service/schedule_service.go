package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-admin-api/internal/models"
	"github.com/noah-isme/edu-admin-api/pkg/config"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

type scheduleInstanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseInstance, error)
}

type scheduleLessonRepository interface {
	ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error)
	ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error)
}

type schedulePatternRepository interface {
	GetByCourseInstance(ctx context.Context, courseInstanceID string) (*models.RawWeeklyPattern, error)
}

type scheduleBlockedDateRepository interface {
	ListAll(ctx context.Context) ([]models.BlockedDate, error)
}

type scheduleOccurrenceRepository interface {
	ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error)
	ListFrom(ctx context.Context, courseInstanceID string, from time.Time, excludeID string) ([]models.Occurrence, error)
	FindByID(ctx context.Context, id string) (*models.Occurrence, error)
	BulkCreate(ctx context.Context, occurrences []models.Occurrence) error
	Update(ctx context.Context, occurrence *models.Occurrence) error
	DeleteByIDs(ctx context.Context, ids []string) error
}

type scheduleReportRepository interface {
	DeleteByOccurrenceIDs(ctx context.Context, occurrenceIDs []string) error
}

// ApplyResult summarises one schedule synchronisation run.
type ApplyResult struct {
	CourseInstanceID     string `json:"course_instance_id"`
	Generated            int    `json:"generated"`
	Created              int    `json:"created"`
	Updated              int    `json:"updated"`
	Deleted              int    `json:"deleted"`
	ExpectedLessons      int    `json:"expected_lessons"`
	ScheduledLessons     int    `json:"scheduled_lessons"`
	Shortfall            bool   `json:"shortfall"`
	TotalLessonsMismatch bool   `json:"total_lessons_mismatch"`
}

// PostponeResult reports the moved occurrence and the cascade it triggered.
type PostponeResult struct {
	Occurrence *models.Occurrence  `json:"occurrence"`
	Cascaded   []models.Occurrence `json:"cascaded"`
}

// ScheduleService orchestrates schedule generation, synchronisation and
// postponement for course instances. All writes for one instance are
// serialised through a per-instance mutex so concurrent applies and
// postpones cannot interleave their read-plan-write cycles.
type ScheduleService struct {
	instances   scheduleInstanceRepository
	lessons     scheduleLessonRepository
	patterns    schedulePatternRepository
	blocked     scheduleBlockedDateRepository
	occurrences scheduleOccurrenceRepository
	reports     scheduleReportRepository

	cache   *CacheService
	metrics *MetricsService
	cfg     config.ScheduleConfig
	logger  *zap.Logger

	locks sync.Map
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(
	instances scheduleInstanceRepository,
	lessons scheduleLessonRepository,
	patterns schedulePatternRepository,
	blocked scheduleBlockedDateRepository,
	occurrences scheduleOccurrenceRepository,
	reports scheduleReportRepository,
	cache *CacheService,
	metrics *MetricsService,
	cfg config.ScheduleConfig,
	logger *zap.Logger,
) *ScheduleService {
	if cfg.PatternSearchDays <= 0 {
		cfg.PatternSearchDays = 14
	}
	if cfg.BlockedSearchDays <= 0 {
		cfg.BlockedSearchDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		instances:   instances,
		lessons:     lessons,
		patterns:    patterns,
		blocked:     blocked,
		occurrences: occurrences,
		reports:     reports,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *ScheduleService) lock(courseInstanceID string) func() {
	value, _ := s.locks.LoadOrStore(courseInstanceID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func occurrenceCacheKey(courseInstanceID string) string {
	return fmt.Sprintf("occurrences:%s", courseInstanceID)
}

// Apply regenerates the full schedule of a course instance and reconciles
// it against the persisted occurrences. Occurrences whose lesson survives
// keep their id so attached reports stay valid; occurrences of removed
// lessons are deleted together with their reports. Running Apply twice on
// unchanged inputs is a no-op beyond timestamp refreshes.
func (s *ScheduleService) Apply(ctx context.Context, courseInstanceID string) (*ApplyResult, error) {
	unlock := s.lock(courseInstanceID)
	defer unlock()
	started := time.Now()

	instance, err := s.instances.FindByID(ctx, courseInstanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instance")
	}

	pattern, lessons, index, err := s.loadScheduleInputs(ctx, instance)
	if err != nil {
		return nil, err
	}

	generated := GenerateOccurrences(pattern, lessons, instance.StartDate, instance.EndDate, index)

	existing, err := s.occurrences.ListByInstance(ctx, courseInstanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}

	plan := PlanScheduleSync(courseInstanceID, generated, existing)
	if err := s.executePlan(ctx, plan); err != nil {
		return nil, err
	}

	result := &ApplyResult{
		CourseInstanceID:     courseInstanceID,
		Generated:            len(generated),
		Created:              len(plan.ToCreate),
		Updated:              len(plan.ToUpdate),
		Deleted:              len(plan.ToDelete),
		ExpectedLessons:      pattern.TotalLessons,
		ScheduledLessons:     len(generated),
		Shortfall:            len(generated) < len(lessons),
		TotalLessonsMismatch: pattern.TotalLessons > 0 && pattern.TotalLessons != len(lessons),
	}

	if result.Shortfall {
		s.logger.Warn("schedule shortfall: not every lesson found a slot in range",
			zap.String("course_instance_id", courseInstanceID),
			zap.Int("lessons", len(lessons)),
			zap.Int("scheduled", len(generated)))
	}
	if result.TotalLessonsMismatch {
		s.logger.Warn("pattern total_lessons disagrees with active lesson count",
			zap.String("course_instance_id", courseInstanceID),
			zap.Int("total_lessons", pattern.TotalLessons),
			zap.Int("lessons", len(lessons)))
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, occurrenceCacheKey(courseInstanceID))
	}
	s.metrics.ObserveScheduleApply(len(generated), time.Since(started))

	s.logger.Info("schedule applied",
		zap.String("course_instance_id", courseInstanceID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted))

	return result, nil
}

// Preview runs generation and planning without writing anything.
func (s *ScheduleService) Preview(ctx context.Context, courseInstanceID string) (*SchedulePlan, error) {
	instance, err := s.instances.FindByID(ctx, courseInstanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instance")
	}

	pattern, lessons, index, err := s.loadScheduleInputs(ctx, instance)
	if err != nil {
		return nil, err
	}
	generated := GenerateOccurrences(pattern, lessons, instance.StartDate, instance.EndDate, index)

	existing, err := s.occurrences.ListByInstance(ctx, courseInstanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}

	plan := PlanScheduleSync(courseInstanceID, generated, existing)
	return &plan, nil
}

// ListOccurrences returns an instance's occurrences ordered by date,
// served from cache when possible.
func (s *ScheduleService) ListOccurrences(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error) {
	key := occurrenceCacheKey(courseInstanceID)
	if s.cache != nil {
		var cached []models.Occurrence
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	occurrences, err := s.occurrences.ListByInstance(ctx, courseInstanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, occurrences, s.cfg.OccurrenceCacheTTL)
	}
	return occurrences, nil
}

// Postpone pushes one occurrence to the next valid day after its current
// date and cascades: every later occurrence whose date no longer sits
// strictly after its predecessor is pushed forward the same way. Blocked
// dates are read fresh so the move reflects the calendar as of now.
func (s *ScheduleService) Postpone(ctx context.Context, occurrenceID string) (*PostponeResult, error) {
	occurrence, err := s.occurrences.FindByID(ctx, occurrenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}

	unlock := s.lock(occurrence.CourseInstanceID)
	defer unlock()

	// The first read only resolved the instance id for the lock. A cascade
	// from a concurrent postpone may have moved this occurrence before the
	// lock was acquired, so re-read it and compute from its current date.
	occurrence, err = s.occurrences.FindByID(ctx, occurrenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}

	instance, err := s.instances.FindByID(ctx, occurrence.CourseInstanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instance")
	}

	pattern, index, err := s.loadPatternAndBlocked(ctx, instance.ID)
	if err != nil {
		return nil, err
	}

	originalDay := truncateToDay(occurrence.ScheduledStart)
	day, err := s.nextValidDay(originalDay, pattern, index)
	if err != nil {
		return nil, err
	}
	if err := s.rescheduleOccurrence(ctx, occurrence, day, pattern); err != nil {
		return nil, err
	}

	result := &PostponeResult{Occurrence: occurrence}

	later, err := s.occurrences.ListFrom(ctx, instance.ID, originalDay, occurrence.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list later occurrences")
	}

	// Walk the later occurrences in date order and push each one until
	// dates strictly increase again; the first gap stops the cascade.
	lastDay := day
	for i := range later {
		next := later[i]
		nextDay := truncateToDay(next.ScheduledStart)
		if nextDay.After(lastDay) {
			break
		}
		moved, err := s.nextValidDay(lastDay, pattern, index)
		if err != nil {
			return nil, err
		}
		if err := s.rescheduleOccurrence(ctx, &next, moved, pattern); err != nil {
			return nil, err
		}
		result.Cascaded = append(result.Cascaded, next)
		lastDay = moved
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, occurrenceCacheKey(instance.ID))
	}
	s.metrics.RecordCascadeUpdates(len(result.Cascaded))

	s.logger.Info("occurrence postponed",
		zap.String("occurrence_id", occurrenceID),
		zap.String("course_instance_id", instance.ID),
		zap.Time("new_start", occurrence.ScheduledStart),
		zap.Int("cascaded", len(result.Cascaded)))

	return result, nil
}

// nextValidDay finds the first day strictly after the given day that both
// matches the pattern and is not blocked. The search first locates a
// pattern weekday within PatternSearchDays, then tolerates up to
// BlockedSearchDays further days of blocked pattern matches.
func (s *ScheduleService) nextValidDay(after time.Time, pattern *models.WeeklyPattern, blocked *BlockedDateIndex) (time.Time, error) {
	cursor := truncateToDay(after)
	var patternDay time.Time
	found := false
	for i := 0; i < s.cfg.PatternSearchDays; i++ {
		cursor = cursor.AddDate(0, 0, 1)
		if pattern.HasDay(int(cursor.Weekday())) {
			patternDay = cursor
			found = true
			break
		}
	}
	if !found {
		return time.Time{}, appErrors.Clone(appErrors.ErrSearchExhausted,
			fmt.Sprintf("no pattern day within %d days", s.cfg.PatternSearchDays))
	}

	cursor = patternDay
	for i := 0; i <= s.cfg.BlockedSearchDays; i++ {
		if pattern.HasDay(int(cursor.Weekday())) && !blocked.IsBlocked(cursor) {
			return cursor, nil
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrSearchExhausted,
		fmt.Sprintf("no unblocked pattern day within %d days", s.cfg.BlockedSearchDays))
}

func (s *ScheduleService) rescheduleOccurrence(ctx context.Context, occurrence *models.Occurrence, day time.Time, pattern *models.WeeklyPattern) error {
	slot, ok := pattern.SlotFor(int(day.Weekday()))
	if !ok {
		return appErrors.Clone(appErrors.ErrMalformedPattern,
			fmt.Sprintf("weekday %d has no time slot", int(day.Weekday())))
	}
	start, end := combineDayAndSlot(day, slot, pattern.LessonDurationMinutes)
	occurrence.ScheduledStart = start
	occurrence.ScheduledEnd = end
	if err := s.occurrences.Update(ctx, occurrence); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update occurrence")
	}
	return nil
}

func (s *ScheduleService) loadScheduleInputs(ctx context.Context, instance *models.CourseInstance) (*models.WeeklyPattern, []models.Lesson, *BlockedDateIndex, error) {
	pattern, index, err := s.loadPatternAndBlocked(ctx, instance.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	var templateLessons, instanceLessons []models.Lesson
	switch instance.LessonMode {
	case models.LessonModeTemplate:
		templateLessons, err = s.lessons.ListTemplate(ctx, instance.CourseID)
	case models.LessonModeCustomOnly:
		instanceLessons, err = s.lessons.ListByInstance(ctx, instance.ID)
	case models.LessonModeCombined:
		templateLessons, err = s.lessons.ListTemplate(ctx, instance.CourseID)
		if err == nil {
			instanceLessons, err = s.lessons.ListByInstance(ctx, instance.ID)
		}
	}
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	lessons, err := ResolveLessonSource(instance.LessonMode, templateLessons, instanceLessons)
	if err != nil {
		return nil, nil, nil, err
	}
	return pattern, lessons, index, nil
}

func (s *ScheduleService) loadPatternAndBlocked(ctx context.Context, courseInstanceID string) (*models.WeeklyPattern, *BlockedDateIndex, error) {
	raw, err := s.patterns.GetByCourseInstance(ctx, courseInstanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course instance has no weekly pattern")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly pattern")
	}
	pattern, err := ResolvePattern(*raw)
	if err != nil {
		return nil, nil, err
	}

	dates, err := s.blocked.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked dates")
	}
	return pattern, BuildBlockedDateIndex(dates), nil
}

func (s *ScheduleService) executePlan(ctx context.Context, plan SchedulePlan) error {
	for _, op := range plan.Cleanups {
		switch op.Kind {
		case CleanupLessonReports:
			if err := s.reports.DeleteByOccurrenceIDs(ctx, op.OccurrenceIDs); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete dependent reports")
			}
		default:
			return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown cleanup kind %q", op.Kind))
		}
	}

	if len(plan.ToDelete) > 0 {
		ids := make([]string, 0, len(plan.ToDelete))
		for _, occ := range plan.ToDelete {
			ids = append(ids, occ.ID)
		}
		if err := s.occurrences.DeleteByIDs(ctx, ids); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete occurrences")
		}
	}

	for i := range plan.ToUpdate {
		if err := s.occurrences.Update(ctx, &plan.ToUpdate[i]); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update occurrence")
		}
	}

	if len(plan.ToCreate) > 0 {
		if err := s.occurrences.BulkCreate(ctx, plan.ToCreate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create occurrences")
		}
	}
	return nil
}
