package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
	"github.com/noah-isme/edu-admin-api/pkg/config"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

type stubInstanceRepo struct {
	instance *models.CourseInstance
}

func (s *stubInstanceRepo) FindByID(ctx context.Context, id string) (*models.CourseInstance, error) {
	if s.instance == nil || s.instance.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.instance
	return &copied, nil
}

type stubLessonRepo struct {
	template []models.Lesson
	instance []models.Lesson
}

func (s *stubLessonRepo) ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return s.template, nil
}

func (s *stubLessonRepo) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error) {
	return s.instance, nil
}

type stubPatternRepo struct {
	raw *models.RawWeeklyPattern
}

func (s *stubPatternRepo) GetByCourseInstance(ctx context.Context, courseInstanceID string) (*models.RawWeeklyPattern, error) {
	if s.raw == nil {
		return nil, sql.ErrNoRows
	}
	return s.raw, nil
}

type stubBlockedRepo struct {
	dates []models.BlockedDate
}

func (s *stubBlockedRepo) ListAll(ctx context.Context) ([]models.BlockedDate, error) {
	return s.dates, nil
}

type stubOccurrenceRepo struct {
	store   map[string]models.Occurrence
	nextID  int
	updated []string
	deleted []string
}

func newStubOccurrenceRepo() *stubOccurrenceRepo {
	return &stubOccurrenceRepo{store: make(map[string]models.Occurrence)}
}

func (s *stubOccurrenceRepo) sorted() []models.Occurrence {
	out := make([]models.Occurrence, 0, len(s.store))
	for _, occ := range s.store {
		out = append(out, occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out
}

func (s *stubOccurrenceRepo) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error) {
	var out []models.Occurrence
	for _, occ := range s.sorted() {
		if occ.CourseInstanceID == courseInstanceID {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (s *stubOccurrenceRepo) ListFrom(ctx context.Context, courseInstanceID string, from time.Time, excludeID string) ([]models.Occurrence, error) {
	var out []models.Occurrence
	for _, occ := range s.sorted() {
		if occ.CourseInstanceID == courseInstanceID && occ.ID != excludeID && !occ.ScheduledStart.Before(from) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (s *stubOccurrenceRepo) FindByID(ctx context.Context, id string) (*models.Occurrence, error) {
	if occ, ok := s.store[id]; ok {
		copied := occ
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubOccurrenceRepo) BulkCreate(ctx context.Context, occurrences []models.Occurrence) error {
	for i := range occurrences {
		if occurrences[i].ID == "" {
			s.nextID++
			occurrences[i].ID = fmt.Sprintf("occ-%d", s.nextID)
		}
		s.store[occurrences[i].ID] = occurrences[i]
	}
	return nil
}

func (s *stubOccurrenceRepo) Update(ctx context.Context, occurrence *models.Occurrence) error {
	if _, ok := s.store[occurrence.ID]; !ok {
		return sql.ErrNoRows
	}
	s.store[occurrence.ID] = *occurrence
	s.updated = append(s.updated, occurrence.ID)
	return nil
}

func (s *stubOccurrenceRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(s.store, id)
		s.deleted = append(s.deleted, id)
	}
	return nil
}

type stubReportRepo struct {
	cleanups [][]string
}

func (s *stubReportRepo) DeleteByOccurrenceIDs(ctx context.Context, occurrenceIDs []string) error {
	s.cleanups = append(s.cleanups, occurrenceIDs)
	return nil
}

func mondayWednesdayRaw() *models.RawWeeklyPattern {
	return &models.RawWeeklyPattern{
		CourseInstanceID: "ci-1",
		DaysOfWeek:       []interface{}{float64(1), float64(3)},
		TimeSlots: map[string]models.TimeSlot{
			"1": {Start: "08:00", End: "08:45"},
			"3": {Start: "08:00", End: "08:45"},
		},
		TotalLessons: 3,
	}
}

func newScheduleFixture(lessonRepo *stubLessonRepo, patternRepo *stubPatternRepo, blockedRepo *stubBlockedRepo, occurrenceRepo *stubOccurrenceRepo, reportRepo *stubReportRepo) (*ScheduleService, *stubInstanceRepo) {
	instanceRepo := &stubInstanceRepo{instance: &models.CourseInstance{
		ID:         "ci-1",
		CourseID:   "course-1",
		LessonMode: models.LessonModeTemplate,
		StartDate:  day("2024-01-01"),
	}}
	svc := NewScheduleService(instanceRepo, lessonRepo, patternRepo, blockedRepo, occurrenceRepo, reportRepo, nil, nil, config.ScheduleConfig{}, nil)
	return svc, instanceRepo
}

func TestScheduleServiceApplyCreatesOccurrences(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	reportRepo := &stubReportRepo{}
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		&stubBlockedRepo{},
		occurrenceRepo,
		reportRepo,
	)

	result, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Deleted)
	assert.False(t, result.Shortfall)
	assert.False(t, result.TotalLessonsMismatch)

	stored, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "2024-01-01", stored[0].ScheduledStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-08", stored[2].ScheduledStart.Format("2006-01-02"))
}

func TestScheduleServiceApplyIsIdempotent(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		&stubBlockedRepo{},
		occurrenceRepo,
		&stubReportRepo{},
	)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)

	second, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, 3, second.Updated)
}

func TestScheduleServiceApplyAfterModeSwitchReplacesSchedule(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	reportRepo := &stubReportRepo{}
	lessonRepo := &stubLessonRepo{
		template: threeLessons(),
		instance: []models.Lesson{
			{ID: "i1", CourseInstanceID: instancePtr("ci-1"), OrderIndex: 0},
			{ID: "i2", CourseInstanceID: instancePtr("ci-1"), OrderIndex: 1},
		},
	}
	svc, instanceRepo := newScheduleFixture(lessonRepo, &stubPatternRepo{raw: mondayWednesdayRaw()}, &stubBlockedRepo{}, occurrenceRepo, reportRepo)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)

	instanceRepo.instance.LessonMode = models.LessonModeCustomOnly
	result, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 3, result.Deleted)
	require.Len(t, reportRepo.cleanups, 1)
	assert.Len(t, reportRepo.cleanups[0], 3)

	stored, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestScheduleServiceApplyWithoutPattern(t *testing.T) {
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{},
		&stubBlockedRepo{},
		newStubOccurrenceRepo(),
		&stubReportRepo{},
	)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestScheduleServiceApplyFlagsTotalLessonsMismatch(t *testing.T) {
	raw := mondayWednesdayRaw()
	raw.TotalLessons = 5
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: raw},
		&stubBlockedRepo{},
		newStubOccurrenceRepo(),
		&stubReportRepo{},
	)

	result, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	assert.True(t, result.TotalLessonsMismatch)
}

func TestScheduleServicePostponeCascades(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		&stubBlockedRepo{},
		occurrenceRepo,
		&stubReportRepo{},
	)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	stored, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	first := stored[0]

	result, err := svc.Postpone(context.Background(), first.ID)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-03", result.Occurrence.ScheduledStart.Format("2006-01-02"))
	require.Len(t, result.Cascaded, 2)
	assert.Equal(t, "2024-01-08", result.Cascaded[0].ScheduledStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-10", result.Cascaded[1].ScheduledStart.Format("2006-01-02"))

	after, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	for i := 1; i < len(after); i++ {
		assert.True(t, after[i].ScheduledStart.After(after[i-1].ScheduledStart))
	}
}

func TestScheduleServicePostponeSkipsBlockedDays(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	blockedRepo := &stubBlockedRepo{}
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()[:1]},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		blockedRepo,
		occurrenceRepo,
		&stubReportRepo{},
	)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	stored, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)

	// the next pattern day is now blocked; the move must land one past it
	blockedRepo.dates = []models.BlockedDate{{StartDate: day("2024-01-03")}}
	result, err := svc.Postpone(context.Background(), stored[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", result.Occurrence.ScheduledStart.Format("2006-01-02"))
}

func TestScheduleServicePostponeSearchExhausted(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	blockedRepo := &stubBlockedRepo{}
	raw := mondayWednesdayRaw()
	raw.DaysOfWeek = []interface{}{float64(1)}
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()[:1]},
		&stubPatternRepo{raw: raw},
		blockedRepo,
		occurrenceRepo,
		&stubReportRepo{},
	)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	stored, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)

	end := day("2024-02-20")
	blockedRepo.dates = []models.BlockedDate{{StartDate: day("2024-01-02"), EndDate: &end}}
	_, err = svc.Postpone(context.Background(), stored[0].ID)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSearchExhausted.Code, appErr.Code)
}

// gatedOccurrenceRepo stalls the first lookup of one occurrence until
// released, so tests can interleave two postpones at a chosen point.
type gatedOccurrenceRepo struct {
	*stubOccurrenceRepo
	gateID  string
	parked  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedOccurrenceRepo) FindByID(ctx context.Context, id string) (*models.Occurrence, error) {
	occ, err := g.stubOccurrenceRepo.FindByID(ctx, id)
	if id == g.gateID {
		g.once.Do(func() {
			close(g.parked)
			<-g.release
		})
	}
	return occ, err
}

func TestScheduleServicePostponeConcurrentCascadeKeepsLessonOrder(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	gated := &gatedOccurrenceRepo{
		stubOccurrenceRepo: occurrenceRepo,
		parked:             make(chan struct{}),
		release:            make(chan struct{}),
	}
	instanceRepo := &stubInstanceRepo{instance: &models.CourseInstance{
		ID:         "ci-1",
		CourseID:   "course-1",
		LessonMode: models.LessonModeTemplate,
		StartDate:  day("2024-01-01"),
	}}
	svc := NewScheduleService(instanceRepo, &stubLessonRepo{template: threeLessons()}, &stubPatternRepo{raw: mondayWednesdayRaw()}, &stubBlockedRepo{}, gated, &stubReportRepo{}, nil, nil, config.ScheduleConfig{}, nil)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)
	stored, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	first, second := stored[0], stored[1]
	gated.gateID = second.ID

	// The postpone of lesson 2 reads its occurrence, then stalls before
	// taking the instance lock while a postpone of lesson 1 cascades
	// through and moves lesson 2's date out from under it.
	done := make(chan error, 1)
	go func() {
		_, err := svc.Postpone(context.Background(), second.ID)
		done <- err
	}()
	<-gated.parked

	_, err = svc.Postpone(context.Background(), first.ID)
	require.NoError(t, err)
	close(gated.release)
	require.NoError(t, <-done)

	after, err := occurrenceRepo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	byLesson := make(map[string]time.Time, len(after))
	for _, occ := range after {
		byLesson[occ.LessonID] = occ.ScheduledStart
	}
	assert.Equal(t, "2024-01-03", byLesson["l1"].Format("2006-01-02"))
	assert.Equal(t, "2024-01-10", byLesson["l2"].Format("2006-01-02"))
	assert.Equal(t, "2024-01-15", byLesson["l3"].Format("2006-01-02"))
	assert.True(t, byLesson["l1"].Before(byLesson["l2"]))
	assert.True(t, byLesson["l2"].Before(byLesson["l3"]))
}

func TestScheduleServicePostponeCascadeStopsAtGap(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		&stubBlockedRepo{},
		occurrenceRepo,
		&stubReportRepo{},
	)

	// lesson 3 already sits well past the others; the cascade must leave
	// it where it is once dates strictly increase again
	seed := []models.Occurrence{
		{ID: "occ-1", CourseInstanceID: "ci-1", LessonID: "l1", LessonNumber: 1, ScheduledStart: day("2024-01-01").Add(8 * time.Hour)},
		{ID: "occ-2", CourseInstanceID: "ci-1", LessonID: "l2", LessonNumber: 2, ScheduledStart: day("2024-01-03").Add(8 * time.Hour)},
		{ID: "occ-3", CourseInstanceID: "ci-1", LessonID: "l3", LessonNumber: 3, ScheduledStart: day("2024-01-15").Add(8 * time.Hour)},
	}
	for _, occ := range seed {
		occurrenceRepo.store[occ.ID] = occ
	}

	result, err := svc.Postpone(context.Background(), "occ-1")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-03", result.Occurrence.ScheduledStart.Format("2006-01-02"))
	require.Len(t, result.Cascaded, 1)
	assert.Equal(t, "occ-2", result.Cascaded[0].ID)
	assert.Equal(t, "2024-01-08", result.Cascaded[0].ScheduledStart.Format("2006-01-02"))

	untouched, err := occurrenceRepo.FindByID(context.Background(), "occ-3")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", untouched.ScheduledStart.Format("2006-01-02"))
}

func TestScheduleServiceListOccurrencesWithoutCache(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		&stubBlockedRepo{},
		occurrenceRepo,
		&stubReportRepo{},
	)

	_, err := svc.Apply(context.Background(), "ci-1")
	require.NoError(t, err)

	occurrences, err := svc.ListOccurrences(context.Background(), "ci-1")
	require.NoError(t, err)
	assert.Len(t, occurrences, 3)
}

func TestScheduleServicePreviewDoesNotWrite(t *testing.T) {
	occurrenceRepo := newStubOccurrenceRepo()
	svc, _ := newScheduleFixture(
		&stubLessonRepo{template: threeLessons()},
		&stubPatternRepo{raw: mondayWednesdayRaw()},
		&stubBlockedRepo{},
		occurrenceRepo,
		&stubReportRepo{},
	)

	plan, err := svc.Preview(context.Background(), "ci-1")
	require.NoError(t, err)
	assert.Len(t, plan.ToCreate, 3)
	assert.Empty(t, occurrenceRepo.store)
}
