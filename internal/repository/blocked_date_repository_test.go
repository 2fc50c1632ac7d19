package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

func newBlockedDateRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBlockedDateRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newBlockedDateRepoMock(t)
	defer cleanup()
	repo := NewBlockedDateRepository(db)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	rows := sqlmock.NewRows([]string{"id", "reason", "start_date", "end_date", "created_at", "updated_at"}).
		AddRow("bd-1", "spring break", start, end, time.Now(), time.Now()).
		AddRow("bd-2", "public holiday", end.AddDate(0, 1, 0), nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM blocked_dates ORDER BY start_date ASC")).
		WillReturnRows(rows)

	dates, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.NotNil(t, dates[0].EndDate)
	assert.Nil(t, dates[1].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockedDateRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newBlockedDateRepoMock(t)
	defer cleanup()
	repo := NewBlockedDateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blocked_dates")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	date := &models.BlockedDate{
		Reason:    "national holiday",
		StartDate: time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), date))
	assert.NotEmpty(t, date.ID)
	assert.False(t, date.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockedDateRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newBlockedDateRepoMock(t)
	defer cleanup()
	repo := NewBlockedDateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blocked_dates WHERE id = $1")).
		WithArgs("bd-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "bd-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
