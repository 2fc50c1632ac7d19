package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

func instancePtr(id string) *string {
	return &id
}

func TestResolveLessonSourceTemplateMode(t *testing.T) {
	template := []models.Lesson{
		{ID: "t2", CourseID: "c1", Title: "Two", OrderIndex: 1},
		{ID: "t1", CourseID: "c1", Title: "One", OrderIndex: 0},
	}
	instance := []models.Lesson{{ID: "i1", CourseID: "c1", CourseInstanceID: instancePtr("ci-1"), OrderIndex: 0}}

	lessons, err := ResolveLessonSource(models.LessonModeTemplate, template, instance)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "t1", lessons[0].ID)
	assert.Equal(t, "t2", lessons[1].ID)
}

func TestResolveLessonSourceCustomOnlyMode(t *testing.T) {
	template := []models.Lesson{{ID: "t1", OrderIndex: 0}}
	instance := []models.Lesson{
		{ID: "i2", CourseInstanceID: instancePtr("ci-1"), OrderIndex: 1},
		{ID: "i1", CourseInstanceID: instancePtr("ci-1"), OrderIndex: 0},
	}

	lessons, err := ResolveLessonSource(models.LessonModeCustomOnly, template, instance)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "i1", lessons[0].ID)
}

func TestResolveLessonSourceCombinedOrdersTemplateFirst(t *testing.T) {
	template := []models.Lesson{
		{ID: "t1", OrderIndex: 0},
		{ID: "t2", OrderIndex: 1},
	}
	instance := []models.Lesson{
		{ID: "i1", CourseInstanceID: instancePtr("ci-1"), OrderIndex: 5},
	}

	lessons, err := ResolveLessonSource(models.LessonModeCombined, template, instance)
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, []string{"t1", "t2", "i1"}, []string{lessons[0].ID, lessons[1].ID, lessons[2].ID})
}

func TestResolveLessonSourceUnknownMode(t *testing.T) {
	_, err := ResolveLessonSource(models.LessonMode("WEEKLY"), nil, nil)
	require.Error(t, err)
}

func TestResolveLessonSourceEmptyIsValid(t *testing.T) {
	lessons, err := ResolveLessonSource(models.LessonModeTemplate, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestResolveLessonSourceTiesBreakByID(t *testing.T) {
	template := []models.Lesson{
		{ID: "b", OrderIndex: 0},
		{ID: "a", OrderIndex: 0},
	}
	lessons, err := ResolveLessonSource(models.LessonModeTemplate, template, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", lessons[0].ID)
}

func TestRenumberCombinedStartsAfterTemplate(t *testing.T) {
	template := []models.Lesson{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}
	instance := []models.Lesson{
		{ID: "i2", OrderIndex: 9},
		{ID: "i1", OrderIndex: 2},
	}

	renumbered := RenumberCombined(template, instance)
	require.Len(t, renumbered, 2)
	assert.Equal(t, "i1", renumbered[0].ID)
	assert.Equal(t, 3, renumbered[0].OrderIndex)
	assert.Equal(t, "i2", renumbered[1].ID)
	assert.Equal(t, 4, renumbered[1].OrderIndex)

	// inputs stay untouched
	assert.Equal(t, 2, instance[1].OrderIndex)
	assert.Equal(t, 9, instance[0].OrderIndex)
}
