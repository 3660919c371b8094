package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/records-api/internal/models"
	"github.com/acadsys/records-api/internal/repository"
	"github.com/acadsys/records-api/internal/service"
	"github.com/acadsys/records-api/pkg/response"
)

type fakeEnrollmentRepo struct {
	admitErr  error
	listErr   error
	updateErr error
	deleteErr error
}

func (f *fakeEnrollmentRepo) ListDetails(ctx context.Context) ([]models.EnrollmentDetail, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []models.EnrollmentDetail{}, nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) Admit(ctx context.Context, enrollment *models.Enrollment) error {
	if f.admitErr != nil {
		return f.admitErr
	}
	enrollment.ID = "enroll-1"
	enrollment.Status = models.EnrollmentStatusActive
	return nil
}

func (f *fakeEnrollmentRepo) Update(ctx context.Context, id string, upd repository.EnrollmentUpdate) (*models.Enrollment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Enrollment{ID: id}, nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

type fakeStudentReader struct {
	err error
}

func (f *fakeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: id}, nil
}

func newEnrollmentTestHandler(repo *fakeEnrollmentRepo, students *fakeStudentReader) *EnrollmentHandler {
	svc := service.NewEnrollmentService(repo, students, nil, nil, nil)
	return NewEnrollmentHandler(svc)
}

func postJSON(t *testing.T, h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h(c)
	return rec
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	handler := newEnrollmentTestHandler(&fakeEnrollmentRepo{}, &fakeStudentReader{})

	rec := postJSON(t, handler.Create, `{"studentId":"student-1","classId":"class-1"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	payload, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "enroll-1", payload["id"])
	assert.Equal(t, "active", payload["status"])
}

func TestEnrollmentHandlerCreateClassFull(t *testing.T) {
	handler := newEnrollmentTestHandler(&fakeEnrollmentRepo{admitErr: repository.ErrClassFull}, &fakeStudentReader{})

	rec := postJSON(t, handler.Create, `{"studentId":"student-1","classId":"class-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CAPACITY_EXCEEDED")
}

func TestEnrollmentHandlerCreateStudentMissing(t *testing.T) {
	handler := newEnrollmentTestHandler(&fakeEnrollmentRepo{}, &fakeStudentReader{err: sql.ErrNoRows})

	rec := postJSON(t, handler.Create, `{"studentId":"student-99","classId":"class-1"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "student not found")
}

func TestEnrollmentHandlerCreateMalformedBody(t *testing.T) {
	handler := newEnrollmentTestHandler(&fakeEnrollmentRepo{}, &fakeStudentReader{})

	rec := postJSON(t, handler.Create, `{"studentId":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollmentHandlerDeleteMissing(t *testing.T) {
	handler := newEnrollmentTestHandler(&fakeEnrollmentRepo{deleteErr: sql.ErrNoRows}, &fakeStudentReader{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/enrollments/enroll-99", nil)
	c.Params = gin.Params{{Key: "id", Value: "enroll-99"}}
	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
