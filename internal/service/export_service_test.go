package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

type exportOccurrenceStub struct {
	occurrences []models.Occurrence
}

func (s *exportOccurrenceStub) ListByInstance(ctx context.Context, courseInstanceID string) ([]models.Occurrence, error) {
	return s.occurrences, nil
}

func newExportFixture(enabled bool) *ExportService {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	instances := &stubInstanceRepo{instance: &models.CourseInstance{
		ID:       "ci-1",
		CourseID: "course-1",
		Grade:    "7A",
	}}
	lessons := &stubLessonRepo{template: []models.Lesson{
		{ID: "l1", Title: "Intro"},
		{ID: "l2", Title: "Basics"},
	}}
	occurrences := &exportOccurrenceStub{occurrences: []models.Occurrence{
		{ID: "occ-1", CourseInstanceID: "ci-1", LessonID: "l1", LessonNumber: 1, ScheduledStart: start, ScheduledEnd: start.Add(45 * time.Minute)},
		{ID: "occ-2", CourseInstanceID: "ci-1", LessonID: "l2", LessonNumber: 2, ScheduledStart: start.AddDate(0, 0, 2), ScheduledEnd: start.AddDate(0, 0, 2).Add(45 * time.Minute)},
	}}
	return NewExportService(instances, lessons, occurrences, nil, enabled, nil, nil)
}

func TestExportServiceTimetableCSV(t *testing.T) {
	svc := newExportFixture(true)

	result, err := svc.Timetable(context.Background(), "ci-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "timetable-ci-1.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "No,Lesson,Date,Start,End", lines[0])
	assert.Equal(t, "1,Intro,2024-01-01,08:00,08:45", lines[1])
	assert.Equal(t, "2,Basics,2024-01-03,08:00,08:45", lines[2])
}

func TestExportServiceTimetablePDF(t *testing.T) {
	svc := newExportFixture(true)

	result, err := svc.Timetable(context.Background(), "ci-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Payload)
}

func TestExportServiceTimetableDisabled(t *testing.T) {
	svc := newExportFixture(false)

	_, err := svc.Timetable(context.Background(), "ci-1", "csv")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestExportServiceTimetableUnsupportedFormat(t *testing.T) {
	svc := newExportFixture(true)

	_, err := svc.Timetable(context.Background(), "ci-1", "xlsx")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportServiceTimetableUnknownInstance(t *testing.T) {
	svc := NewExportService(&stubInstanceRepo{}, &stubLessonRepo{}, &exportOccurrenceStub{}, nil, true, nil, nil)

	_, err := svc.Timetable(context.Background(), "ci-unknown", "csv")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
