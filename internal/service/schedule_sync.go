package service

import (
	"github.com/noah-isme/edu-admin-api/internal/models"
)

// Cleanup operation kinds, executed in plan order before occurrence
// deletes so referential constraints in the store are satisfied.
const (
	CleanupLessonReports = "LESSON_REPORTS"
)

// CleanupOp names one dependent-record deletion that must run before the
// occurrences it references are removed.
type CleanupOp struct {
	Kind          string   `json:"kind"`
	OccurrenceIDs []string `json:"occurrence_ids"`
	LessonIDs     []string `json:"lesson_ids"`
}

// SchedulePlan is the reconciliation of freshly generated occurrences
// against the persisted ones for a course instance. Cleanups are ordered
// and must be executed before ToDelete.
type SchedulePlan struct {
	CourseInstanceID string              `json:"course_instance_id"`
	ToCreate         []models.Occurrence `json:"to_create"`
	ToUpdate         []models.Occurrence `json:"to_update"`
	ToDelete         []models.Occurrence `json:"to_delete"`
	Cleanups         []CleanupOp         `json:"cleanups"`
}

// IsEmpty reports whether the plan changes nothing.
func (p SchedulePlan) IsEmpty() bool {
	return len(p.ToCreate) == 0 && len(p.ToUpdate) == 0 && len(p.ToDelete) == 0
}

// PlanScheduleSync correlates generated occurrences with existing ones by
// lesson id. A generated occurrence whose lesson already has a persisted
// occurrence becomes an update that keeps the persisted id, so foreign
// references (reports) stay valid across regeneration. Lessons that
// disappeared from the active list have their occurrences deleted, with
// dependent cleanups listed first. Pure function; execution and error
// handling live in ScheduleService.
func PlanScheduleSync(courseInstanceID string, generated, existing []models.Occurrence) SchedulePlan {
	plan := SchedulePlan{CourseInstanceID: courseInstanceID}

	existingByLesson := make(map[string]models.Occurrence, len(existing))
	for _, occ := range existing {
		existingByLesson[occ.LessonID] = occ
	}

	generatedLessons := make(map[string]struct{}, len(generated))
	for _, occ := range generated {
		generatedLessons[occ.LessonID] = struct{}{}
		if current, ok := existingByLesson[occ.LessonID]; ok {
			updated := current
			updated.LessonNumber = occ.LessonNumber
			updated.ScheduledStart = occ.ScheduledStart
			updated.ScheduledEnd = occ.ScheduledEnd
			plan.ToUpdate = append(plan.ToUpdate, updated)
			continue
		}
		occ.CourseInstanceID = courseInstanceID
		plan.ToCreate = append(plan.ToCreate, occ)
	}

	for _, occ := range existing {
		if _, kept := generatedLessons[occ.LessonID]; !kept {
			plan.ToDelete = append(plan.ToDelete, occ)
		}
	}

	if len(plan.ToDelete) > 0 {
		op := CleanupOp{Kind: CleanupLessonReports}
		for _, occ := range plan.ToDelete {
			op.OccurrenceIDs = append(op.OccurrenceIDs, occ.ID)
			op.LessonIDs = append(op.LessonIDs, occ.LessonID)
		}
		plan.Cleanups = append(plan.Cleanups, op)
	}

	return plan
}
