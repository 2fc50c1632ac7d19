package service

import (
	"time"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

// BlockedDateIndex answers day-granular membership queries against the
// administratively blocked calendar. Time-of-day is ignored.
type BlockedDateIndex struct {
	days map[string]struct{}
}

// BuildBlockedDateIndex expands blocked date records into a lookup set.
// Range records contribute every day from start to end inclusive; an empty
// input yields an index that blocks nothing.
func BuildBlockedDateIndex(dates []models.BlockedDate) *BlockedDateIndex {
	idx := &BlockedDateIndex{days: make(map[string]struct{})}
	for _, d := range dates {
		start := truncateToDay(d.StartDate)
		idx.days[dayKey(start)] = struct{}{}
		if d.EndDate == nil {
			continue
		}
		end := truncateToDay(*d.EndDate)
		for cursor := start.AddDate(0, 0, 1); !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
			idx.days[dayKey(cursor)] = struct{}{}
		}
	}
	return idx
}

// IsBlocked reports whether the calendar day containing t is blocked.
func (i *BlockedDateIndex) IsBlocked(t time.Time) bool {
	if i == nil || len(i.days) == 0 {
		return false
	}
	_, ok := i.days[dayKey(t)]
	return ok
}

// Len returns the number of blocked calendar days.
func (i *BlockedDateIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.days)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
