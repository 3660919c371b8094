package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/records-api/internal/models"
)

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "code", "description", "workload", "status", "created_at", "updated_at"}).
		AddRow("course-1", "Algorithms", "ALG-101", nil, 60, "active", now, now).
		AddRow("course-2", "Databases", "DB-201", "Relational modelling", 80, "inactive", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, description, workload, status, created_at, updated_at FROM courses ORDER BY name ASC")).
		WillReturnRows(rows)

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algorithms", courses[0].Name)
	assert.Nil(t, courses[0].Description)
	require.NotNil(t, courses[1].Description)
	assert.Equal(t, "Relational modelling", *courses[1].Description)
}

func TestCourseRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WithArgs(sqlmock.AnyArg(), "Algorithms", "ALG-101", nil, 60, string(models.CourseStatusActive), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Name: "Algorithms", Code: "ALG-101"}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	assert.Equal(t, 60, course.Workload)
	assert.Equal(t, models.CourseStatusActive, course.Status)
}

func TestCourseRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	name := "Advanced Algorithms"
	rows := sqlmock.NewRows([]string{"id", "name", "code", "description", "workload", "status", "created_at", "updated_at"}).
		AddRow("course-1", name, "ALG-101", nil, 60, "active", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE courses SET name = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WithArgs(name, sqlmock.AnyArg(), "course-1").
		WillReturnRows(rows)

	course, err := repo.Update(context.Background(), "course-1", CourseUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, course.Name)
	assert.Equal(t, "ALG-101", course.Code)
}

func TestCourseRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	name := "Ghost"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE courses SET")).
		WithArgs(name, sqlmock.AnyArg(), "course-99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "course-99", CourseUpdate{Name: &name})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("course-99").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "course-99")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}
