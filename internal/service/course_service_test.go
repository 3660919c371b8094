package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/records-api/internal/models"
	"github.com/acadsys/records-api/internal/repository"
	appErrors "github.com/acadsys/records-api/pkg/errors"
)

type mockCourseRepo struct {
	listResult []models.Course
	listErr    error
	listCalls  int
	createErr  error
	created    *models.Course
	updated    *models.Course
	updateErr  error
	deleteErr  error
}

func (m *mockCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	m.listCalls++
	return m.listResult, m.listErr
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range m.listResult {
		if m.listResult[i].ID == id {
			return &m.listResult[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = "course-1"
	if course.Workload == 0 {
		course.Workload = 60
	}
	if course.Status == "" {
		course.Status = models.CourseStatusActive
	}
	m.created = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, id string, upd repository.CourseUpdate) (*models.Course, error) {
	return m.updated, m.updateErr
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

// memoryCache is an in-process CacheRepository for exercising the
// read-through path without redis.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	payload, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = payload
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func TestCourseServiceListCachesResult(t *testing.T) {
	repo := &mockCourseRepo{listResult: []models.Course{{ID: "course-1", Name: "Algorithms", Code: "ALG-101"}}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewCourseService(repo, cache, nil, nil)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	// second call served from cache
	assert.Equal(t, 1, repo.listCalls)
}

func TestCourseServiceListWithoutCache(t *testing.T) {
	repo := &mockCourseRepo{listResult: []models.Course{{ID: "course-1"}}}
	svc := NewCourseService(repo, nil, nil, nil)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCourseServiceCreateInvalidatesCache(t *testing.T) {
	repo := &mockCourseRepo{listResult: []models.Course{{ID: "course-1"}}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewCourseService(repo, cache, nil, nil)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(context.Background(), CreateCourseRequest{Name: "Databases", Code: "DB-201"})
	require.NoError(t, err)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := &mockCourseRepo{createErr: &pq.Error{Code: "23505"}}
	svc := NewCourseService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Name: "Algorithms", Code: "ALG-101"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "course code already in use", appErr.Message)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Name: "Algorithms"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
	require.NotEmpty(t, appErr.Fields)
	assert.Equal(t, "code", appErr.Fields[0].Field)
}

func TestCourseServiceUpdateMissing(t *testing.T) {
	repo := &mockCourseRepo{updateErr: sql.ErrNoRows}
	svc := NewCourseService(repo, nil, nil, nil)

	name := "Ghost"
	_, err := svc.Update(context.Background(), "course-99", UpdateCourseRequest{Name: &name})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Status)
}

func TestCourseServiceDeleteWithClasses(t *testing.T) {
	repo := &mockCourseRepo{deleteErr: &pq.Error{Code: "23503"}}
	svc := NewCourseService(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "course-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "course still has classes", appErr.Message)
}
