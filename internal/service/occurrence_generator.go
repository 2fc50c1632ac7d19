package service

import (
	"time"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// maxGenerationDays caps the forward scan when no end date is given. The
// cap behaves exactly like an explicit range end: lessons that found no
// slot are simply not emitted.
const maxGenerationDays = 3660

// GenerateOccurrences walks the calendar forward from startDate and
// assigns each lesson, in order, to the next pattern-matching non-blocked
// day. The scan is greedy and strictly forward: the Nth matching day gets
// the Nth lesson, which guarantees occurrence dates increase with lesson
// order and makes regeneration deterministic for identical inputs.
//
// Occurrences are returned without ids. A shortfall (more lessons than
// matching days in range) is not an error: only lessons that found a slot
// are emitted and the caller decides whether to flag it.
func GenerateOccurrences(pattern *models.WeeklyPattern, lessons []models.Lesson, startDate time.Time, endDate *time.Time, blocked *BlockedDateIndex) []models.Occurrence {
	if pattern == nil || len(pattern.DaysOfWeek) == 0 || len(lessons) == 0 {
		return nil
	}

	cursor := truncateToDay(startDate)
	var rangeEnd time.Time
	if endDate != nil {
		rangeEnd = truncateToDay(*endDate)
	} else {
		rangeEnd = cursor.AddDate(0, 0, maxGenerationDays)
	}

	occurrences := make([]models.Occurrence, 0, len(lessons))
	lessonCursor := 0
	for lessonCursor < len(lessons) && !cursor.After(rangeEnd) {
		weekday := int(cursor.Weekday())
		if pattern.HasDay(weekday) && !blocked.IsBlocked(cursor) {
			slot, ok := pattern.SlotFor(weekday)
			if !ok {
				// ResolvePattern guarantees a slot per day; a miss here
				// means the pattern bypassed normalisation.
				return occurrences
			}
			start, end := combineDayAndSlot(cursor, slot, pattern.LessonDurationMinutes)
			occurrences = append(occurrences, models.Occurrence{
				CourseInstanceID: pattern.CourseInstanceID,
				LessonID:         lessons[lessonCursor].ID,
				LessonNumber:     lessonCursor + 1,
				ScheduledStart:   start,
				ScheduledEnd:     end,
			})
			lessonCursor++
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return occurrences
}

// combineDayAndSlot merges a calendar day with a pattern time slot. When
// the slot has no end time the pattern's lesson duration supplies it.
func combineDayAndSlot(day time.Time, slot models.TimeSlot, durationMinutes int) (time.Time, time.Time) {
	start := atClock(day, slot.Start)
	if slot.End != "" {
		return start, atClock(day, slot.End)
	}
	return start, start.Add(time.Duration(durationMinutes) * time.Minute)
}

func atClock(day time.Time, clock string) time.Time {
	parsed, err := parseClock(clock)
	if err != nil {
		return day
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}
