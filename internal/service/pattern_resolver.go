package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/edu-admin-api/internal/models"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
)

// ResolvePattern normalises a persisted weekly pattern into its canonical
// form. This is the single coercion boundary for weekday values, which may
// arrive as JSON numbers or strings; downstream code only ever sees
// validated integers. Pure, no side effects.
func ResolvePattern(raw models.RawWeeklyPattern) (*models.WeeklyPattern, error) {
	if len(raw.DaysOfWeek) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMalformedPattern, "pattern has no days of week")
	}

	seen := make(map[int]struct{}, len(raw.DaysOfWeek))
	days := make([]int, 0, len(raw.DaysOfWeek))
	for _, v := range raw.DaysOfWeek {
		day, err := coerceWeekday(v)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedPattern.Code, appErrors.ErrMalformedPattern.Status, "invalid weekday value")
		}
		if day < 0 || day > 6 {
			return nil, appErrors.Clone(appErrors.ErrMalformedPattern, fmt.Sprintf("weekday %d out of range 0-6", day))
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Ints(days)

	if raw.LessonDurationMinutes < 0 {
		return nil, appErrors.Clone(appErrors.ErrMalformedPattern, "lesson duration must not be negative")
	}

	slots := make(map[int]models.TimeSlot, len(days))
	for _, day := range days {
		slot, ok := raw.TimeSlots[strconv.Itoa(day)]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrMalformedPattern, fmt.Sprintf("weekday %d has no time slot", day))
		}
		if _, err := parseClock(slot.Start); err != nil {
			return nil, appErrors.Clone(appErrors.ErrMalformedPattern, fmt.Sprintf("weekday %d start time %q is not HH:MM", day, slot.Start))
		}
		if slot.End != "" {
			if _, err := parseClock(slot.End); err != nil {
				return nil, appErrors.Clone(appErrors.ErrMalformedPattern, fmt.Sprintf("weekday %d end time %q is not HH:MM", day, slot.End))
			}
		} else if raw.LessonDurationMinutes == 0 {
			return nil, appErrors.Clone(appErrors.ErrMalformedPattern, fmt.Sprintf("weekday %d has no end time and the pattern has no lesson duration", day))
		}
		slots[day] = slot
	}

	return &models.WeeklyPattern{
		ID:                    raw.ID,
		CourseInstanceID:      raw.CourseInstanceID,
		DaysOfWeek:            days,
		TimeSlots:             slots,
		TotalLessons:          raw.TotalLessons,
		LessonDurationMinutes: raw.LessonDurationMinutes,
	}, nil
}

func coerceWeekday(v interface{}) (int, error) {
	switch value := v.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case float64:
		day := int(value)
		if float64(day) != value {
			return 0, fmt.Errorf("weekday %v is not an integer", value)
		}
		return day, nil
	case json.Number:
		day, err := value.Int64()
		if err != nil {
			return 0, fmt.Errorf("weekday %q is not an integer", value.String())
		}
		return int(day), nil
	case string:
		day, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("weekday %q is not an integer", value)
		}
		return day, nil
	default:
		return 0, fmt.Errorf("unsupported weekday type %T", v)
	}
}

func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}
