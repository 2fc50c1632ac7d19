package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
)

func newOccurrenceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var occurrenceColumns = []string{"id", "course_instance_id", "lesson_id", "lesson_number", "scheduled_start", "scheduled_end", "created_at", "updated_at"}

func TestOccurrenceRepositoryListByInstance(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(occurrenceColumns).
		AddRow("occ-1", "ci-1", "l1", 1, start, start.Add(45*time.Minute), time.Now(), time.Now()).
		AddRow("occ-2", "ci-1", "l2", 2, start.AddDate(0, 0, 2), start.AddDate(0, 0, 2).Add(45*time.Minute), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM occurrences WHERE course_instance_id = $1 ORDER BY scheduled_start ASC")).
		WithArgs("ci-1").
		WillReturnRows(rows)

	occurrences, err := repo.ListByInstance(context.Background(), "ci-1")
	require.NoError(t, err)
	require.Len(t, occurrences, 2)
	assert.Equal(t, "l1", occurrences[0].LessonID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryListFromExcludesID(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(occurrenceColumns).
		AddRow("occ-2", "ci-1", "l2", 2, from.AddDate(0, 0, 2), from.AddDate(0, 0, 2), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM occurrences WHERE course_instance_id = $1 AND scheduled_start >= $2 AND id <> $3 ORDER BY scheduled_start ASC")).
		WithArgs("ci-1", from, "occ-1").
		WillReturnRows(rows)

	occurrences, err := repo.ListFrom(context.Background(), "ci-1", from, "occ-1")
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, "occ-2", occurrences[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM occurrences WHERE id = $1")).
		WithArgs("occ-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "occ-missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryBulkCreateAssignsIDs(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occurrences")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occurrences")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	occurrences := []models.Occurrence{
		{CourseInstanceID: "ci-1", LessonID: "l1", LessonNumber: 1, ScheduledStart: start, ScheduledEnd: start.Add(45 * time.Minute)},
		{CourseInstanceID: "ci-1", LessonID: "l2", LessonNumber: 2, ScheduledStart: start.AddDate(0, 0, 2), ScheduledEnd: start.AddDate(0, 0, 2).Add(45 * time.Minute)},
	}
	err := repo.BulkCreate(context.Background(), occurrences)
	require.NoError(t, err)
	assert.NotEmpty(t, occurrences[0].ID)
	assert.NotEmpty(t, occurrences[1].ID)
	assert.False(t, occurrences[0].UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryBulkCreateRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occurrences")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.BulkCreate(context.Background(), []models.Occurrence{{CourseInstanceID: "ci-1", LessonID: "l1"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE occurrences SET")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	occurrence := &models.Occurrence{
		ID:             "occ-1",
		LessonNumber:   2,
		ScheduledStart: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2024, 1, 8, 8, 45, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Update(context.Background(), occurrence))
	assert.False(t, occurrence.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM occurrences WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(1, 2))

	require.NoError(t, repo.DeleteByIDs(context.Background(), []string{"occ-1", "occ-2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccurrenceRepositoryDeleteByIDsEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newOccurrenceRepoMock(t)
	defer cleanup()
	repo := NewOccurrenceRepository(db)

	require.NoError(t, repo.DeleteByIDs(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
