package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBlockedDateIndexSingleDay(t *testing.T) {
	idx := BuildBlockedDateIndex([]models.BlockedDate{
		{StartDate: day("2024-01-03")},
	})

	assert.True(t, idx.IsBlocked(day("2024-01-03")))
	assert.False(t, idx.IsBlocked(day("2024-01-04")))
	assert.Equal(t, 1, idx.Len())
}

func TestBlockedDateIndexInclusiveRange(t *testing.T) {
	end := day("2024-03-05")
	idx := BuildBlockedDateIndex([]models.BlockedDate{
		{StartDate: day("2024-03-01"), EndDate: &end},
	})

	assert.Equal(t, 5, idx.Len())
	assert.True(t, idx.IsBlocked(day("2024-03-01")))
	assert.True(t, idx.IsBlocked(day("2024-03-05")))
	assert.False(t, idx.IsBlocked(day("2024-03-06")))
}

func TestBlockedDateIndexIgnoresTimeOfDay(t *testing.T) {
	idx := BuildBlockedDateIndex([]models.BlockedDate{
		{StartDate: day("2024-01-03")},
	})
	assert.True(t, idx.IsBlocked(day("2024-01-03").Add(14*time.Hour)))
}

func TestBlockedDateIndexNilSafe(t *testing.T) {
	var idx *BlockedDateIndex
	assert.False(t, idx.IsBlocked(day("2024-01-01")))
	assert.Equal(t, 0, idx.Len())

	empty := BuildBlockedDateIndex(nil)
	assert.False(t, empty.IsBlocked(day("2024-01-01")))
}
