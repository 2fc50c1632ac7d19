package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
	"github.com/noah-isme/edu-admin-api/internal/service"
	"github.com/noah-isme/edu-admin-api/pkg/config"
)

type scheduleInstanceStub struct {
	instance *models.CourseInstance
}

func (s *scheduleInstanceStub) FindByID(ctx context.Context, id string) (*models.CourseInstance, error) {
	if s.instance == nil || s.instance.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.instance, nil
}

type scheduleLessonStub struct {
	template []models.Lesson
}

func (s *scheduleLessonStub) ListTemplate(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return s.template, nil
}

func (s *scheduleLessonStub) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Lesson, error) {
	return nil, nil
}

type schedulePatternStub struct {
	raw *models.RawWeeklyPattern
}

func (s *schedulePatternStub) GetByCourseInstance(ctx context.Context, courseInstanceID string) (*models.RawWeeklyPattern, error) {
	if s.raw == nil {
		return nil, sql.ErrNoRows
	}
	return s.raw, nil
}

type scheduleBlockedStub struct{}

func (s *scheduleBlockedStub) ListAll(ctx context.Context) ([]models.BlockedDate, error) {
	return nil, nil
}

type scheduleOccurrenceStub struct {
	created []models.Occurrence
}

func (s *scheduleOccurrenceStub) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error) {
	return s.created, nil
}

func (s *scheduleOccurrenceStub) ListFrom(ctx context.Context, courseInstanceID string, from time.Time, excludeID string) ([]models.Occurrence, error) {
	return nil, nil
}

func (s *scheduleOccurrenceStub) FindByID(ctx context.Context, id string) (*models.Occurrence, error) {
	return nil, sql.ErrNoRows
}

func (s *scheduleOccurrenceStub) BulkCreate(ctx context.Context, occurrences []models.Occurrence) error {
	s.created = append(s.created, occurrences...)
	return nil
}

func (s *scheduleOccurrenceStub) Update(ctx context.Context, occurrence *models.Occurrence) error {
	return nil
}

func (s *scheduleOccurrenceStub) DeleteByIDs(ctx context.Context, ids []string) error {
	return nil
}

type scheduleReportStub struct{}

func (s *scheduleReportStub) DeleteByOccurrenceIDs(ctx context.Context, occurrenceIDs []string) error {
	return nil
}

func newScheduleHandlerFixture(patternStub *schedulePatternStub) *ScheduleHandler {
	svc := service.NewScheduleService(
		&scheduleInstanceStub{instance: &models.CourseInstance{
			ID:         "ci-1",
			CourseID:   "course-1",
			LessonMode: models.LessonModeTemplate,
			StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
		&scheduleLessonStub{template: []models.Lesson{
			{ID: "l1", CourseID: "course-1", Title: "Intro", OrderIndex: 0},
			{ID: "l2", CourseID: "course-1", Title: "Basics", OrderIndex: 1},
		}},
		patternStub,
		&scheduleBlockedStub{},
		&scheduleOccurrenceStub{},
		&scheduleReportStub{},
		nil, nil, config.ScheduleConfig{}, nil,
	)
	return NewScheduleHandler(svc)
}

func mondayPattern() *models.RawWeeklyPattern {
	return &models.RawWeeklyPattern{
		CourseInstanceID: "ci-1",
		DaysOfWeek:       []interface{}{float64(1)},
		TimeSlots:        map[string]models.TimeSlot{"1": {Start: "08:00", End: "08:45"}},
	}
}

func TestScheduleHandlerApply(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScheduleHandlerFixture(&schedulePatternStub{raw: mondayPattern()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/course-instances/ci-1/schedule/apply", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ci-1"}}

	handler.Apply(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Created)
	assert.Equal(t, "ci-1", envelope.Data.CourseInstanceID)
}

func TestScheduleHandlerApplyWithoutPattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScheduleHandlerFixture(&schedulePatternStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/course-instances/ci-1/schedule/apply", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ci-1"}}

	handler.Apply(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestScheduleHandlerApplyUnknownInstance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScheduleHandlerFixture(&schedulePatternStub{raw: mondayPattern()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/course-instances/ci-unknown/schedule/apply", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ci-unknown"}}

	handler.Apply(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerPostponeUnknownOccurrence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newScheduleHandlerFixture(&schedulePatternStub{raw: mondayPattern()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/occurrences/occ-missing/postpone", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "occ-missing"}}

	handler.Postpone(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
