package service

import (
	"sort"

	"github.com/noah-isme/edu-admin-api/internal/models"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

// ResolveLessonSource produces the ordered lesson sequence that feeds
// schedule generation for the given lesson mode. Template lessons always
// precede instance lessons in combined mode, each collection internally
// ordered by order_index (ties broken by id). An empty result is valid and
// means there is nothing to schedule.
func ResolveLessonSource(mode models.LessonMode, templateLessons, instanceLessons []models.Lesson) ([]models.Lesson, error) {
	switch mode {
	case models.LessonModeTemplate:
		return sortLessons(templateLessons), nil
	case models.LessonModeCustomOnly:
		return sortLessons(instanceLessons), nil
	case models.LessonModeCombined:
		combined := sortLessons(templateLessons)
		return append(combined, sortLessons(instanceLessons)...), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lesson mode")
	}
}

// RenumberCombined recomputes storage order indexes for instance lessons
// in combined mode: instance lessons are renumbered starting at the
// template lesson count. The returned slice carries the new indexes; the
// inputs are not mutated.
func RenumberCombined(templateLessons, instanceLessons []models.Lesson) []models.Lesson {
	renumbered := sortLessons(instanceLessons)
	base := len(templateLessons)
	for i := range renumbered {
		renumbered[i].OrderIndex = base + i
	}
	return renumbered
}

func sortLessons(lessons []models.Lesson) []models.Lesson {
	out := make([]models.Lesson, len(lessons))
	copy(out, lessons)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}
