package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/records-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestEnrollmentRepositoryAdmit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capacity FROM classes WHERE id = $1 FOR UPDATE`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}).AddRow("class-1", 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrollments WHERE class_id = $1`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), string(models.EnrollmentStatusActive), "student-1", "class-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "student-1", ClassID: "class-1"}
	err := repo.Admit(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.False(t, enrollment.EnrollmentDate.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitClassFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capacity FROM classes WHERE id = $1 FOR UPDATE`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}).AddRow("class-1", 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrollments WHERE class_id = $1`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), &models.Enrollment{StudentID: "student-1", ClassID: "class-1"})
	require.ErrorIs(t, err, ErrClassFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitCountsEveryStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	// A cancelled enrollment still occupies its seat, so the count has no
	// status filter.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capacity FROM classes WHERE id = $1 FOR UPDATE`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}).AddRow("class-1", 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrollments WHERE class_id = $1`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), &models.Enrollment{StudentID: "student-1", ClassID: "class-1"})
	require.ErrorIs(t, err, ErrClassFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitClassMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capacity FROM classes WHERE id = $1 FOR UPDATE`)).
		WithArgs("class-99").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), &models.Enrollment{StudentID: "student-1", ClassID: "class-99"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAdmitKeepsProvidedFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, capacity FROM classes WHERE id = $1 FOR UPDATE`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}).AddRow("class-1", 30))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrollments WHERE class_id = $1`)).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(sqlmock.AnyArg(), date, string(models.EnrollmentStatusCompleted), "student-1", "class-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{
		StudentID:      "student-1",
		ClassID:        "class-1",
		Status:         models.EnrollmentStatusCompleted,
		EnrollmentDate: date,
	}
	err := repo.Admit(context.Background(), enrollment)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.Equal(t, date, enrollment.EnrollmentDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "enrollment_date", "status", "student_id", "class_id", "created_at", "updated_at"}).
		AddRow("enroll-1", now, "active", "student-1", "class-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, enrollment_date, status, student_id, class_id, created_at, updated_at FROM enrollments WHERE id = $1")).
		WithArgs("enroll-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByID(context.Background(), "enroll-1")
	require.NoError(t, err)
	assert.Equal(t, "enroll-1", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	status := models.EnrollmentStatusCancelled
	rows := sqlmock.NewRows([]string{"id", "enrollment_date", "status", "student_id", "class_id", "created_at", "updated_at"}).
		AddRow("enroll-1", now, "cancelled", "student-1", "class-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE enrollments SET status = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WithArgs(status, sqlmock.AnyArg(), "enroll-1").
		WillReturnRows(rows)

	enrollment, err := repo.Update(context.Background(), "enroll-1", EnrollmentUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, enrollment.Status)
}

func TestEnrollmentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	status := models.EnrollmentStatusActive
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE enrollments SET")).
		WithArgs(status, sqlmock.AnyArg(), "enroll-99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "enroll-99", EnrollmentUpdate{Status: &status})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("enroll-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "enroll-1"))
}

func TestEnrollmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("enroll-99").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "enroll-99")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}
