package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

func mondayWednesdayPattern() *models.WeeklyPattern {
	return &models.WeeklyPattern{
		CourseInstanceID: "ci-1",
		DaysOfWeek:       []int{1, 3},
		TimeSlots: map[int]models.TimeSlot{
			1: {Start: "08:00", End: "08:45"},
			3: {Start: "08:00", End: "08:45"},
		},
	}
}

func threeLessons() []models.Lesson {
	return []models.Lesson{
		{ID: "l1", OrderIndex: 0},
		{ID: "l2", OrderIndex: 1},
		{ID: "l3", OrderIndex: 2},
	}
}

func TestGenerateOccurrencesAssignsLessonsToPatternDays(t *testing.T) {
	// 2024-01-01 is a Monday.
	occurrences := GenerateOccurrences(mondayWednesdayPattern(), threeLessons(), day("2024-01-01"), nil, BuildBlockedDateIndex(nil))

	require.Len(t, occurrences, 3)
	assert.Equal(t, "2024-01-01", occurrences[0].ScheduledStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", occurrences[1].ScheduledStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-08", occurrences[2].ScheduledStart.Format("2006-01-02"))

	assert.Equal(t, "l1", occurrences[0].LessonID)
	assert.Equal(t, 1, occurrences[0].LessonNumber)
	assert.Equal(t, 3, occurrences[2].LessonNumber)

	assert.Equal(t, "08:00", occurrences[0].ScheduledStart.Format("15:04"))
	assert.Equal(t, "08:45", occurrences[0].ScheduledEnd.Format("15:04"))
	assert.Equal(t, "ci-1", occurrences[0].CourseInstanceID)
}

func TestGenerateOccurrencesSkipsBlockedDays(t *testing.T) {
	blocked := BuildBlockedDateIndex([]models.BlockedDate{{StartDate: day("2024-01-03")}})

	occurrences := GenerateOccurrences(mondayWednesdayPattern(), threeLessons(), day("2024-01-01"), nil, blocked)

	require.Len(t, occurrences, 3)
	assert.Equal(t, "2024-01-01", occurrences[0].ScheduledStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-08", occurrences[1].ScheduledStart.Format("2006-01-02"))
	assert.Equal(t, "2024-01-10", occurrences[2].ScheduledStart.Format("2006-01-02"))
}

func TestGenerateOccurrencesShortfallAtRangeEnd(t *testing.T) {
	end := day("2024-01-04")
	occurrences := GenerateOccurrences(mondayWednesdayPattern(), threeLessons(), day("2024-01-01"), &end, BuildBlockedDateIndex(nil))

	// only two pattern days fit before the end date
	require.Len(t, occurrences, 2)
	assert.Equal(t, "l2", occurrences[1].LessonID)
}

func TestGenerateOccurrencesEndFromDuration(t *testing.T) {
	pattern := &models.WeeklyPattern{
		CourseInstanceID:      "ci-1",
		DaysOfWeek:            []int{1},
		TimeSlots:             map[int]models.TimeSlot{1: {Start: "09:30"}},
		LessonDurationMinutes: 90,
	}

	occurrences := GenerateOccurrences(pattern, threeLessons()[:1], day("2024-01-01"), nil, BuildBlockedDateIndex(nil))
	require.Len(t, occurrences, 1)
	assert.Equal(t, "09:30", occurrences[0].ScheduledStart.Format("15:04"))
	assert.Equal(t, "11:00", occurrences[0].ScheduledEnd.Format("15:04"))
}

func TestGenerateOccurrencesEmptyInputs(t *testing.T) {
	assert.Nil(t, GenerateOccurrences(nil, threeLessons(), day("2024-01-01"), nil, nil))
	assert.Nil(t, GenerateOccurrences(mondayWednesdayPattern(), nil, day("2024-01-01"), nil, nil))
}

func TestGenerateOccurrencesDeterministic(t *testing.T) {
	first := GenerateOccurrences(mondayWednesdayPattern(), threeLessons(), day("2024-01-01"), nil, BuildBlockedDateIndex(nil))
	second := GenerateOccurrences(mondayWednesdayPattern(), threeLessons(), day("2024-01-01"), nil, BuildBlockedDateIndex(nil))
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].ScheduledStart.Equal(second[i].ScheduledStart))
		assert.Equal(t, first[i].LessonID, second[i].LessonID)
	}
}

func TestGenerateOccurrencesDatesStrictlyIncrease(t *testing.T) {
	occurrences := GenerateOccurrences(mondayWednesdayPattern(), threeLessons(), day("2024-01-01"), nil, BuildBlockedDateIndex(nil))
	for i := 1; i < len(occurrences); i++ {
		assert.True(t, occurrences[i].ScheduledStart.After(occurrences[i-1].ScheduledStart))
	}
}
