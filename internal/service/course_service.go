package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/records-api/internal/models"
	"github.com/acadsys/records-api/internal/repository"
	"github.com/acadsys/records-api/pkg/database"
	appErrors "github.com/acadsys/records-api/pkg/errors"
)

// CourseListCacheKey caches the course listing payload.
const CourseListCacheKey = "courses:list"

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id string, upd repository.CourseUpdate) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest describes course creation payload.
type CreateCourseRequest struct {
	Name        string               `json:"name" validate:"required"`
	Code        string               `json:"code" validate:"required"`
	Description *string              `json:"description"`
	Workload    *int                 `json:"workload" validate:"omitempty,gt=0"`
	Status      *models.CourseStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateCourseRequest describes a partial course update.
type UpdateCourseRequest struct {
	Name        *string              `json:"name" validate:"omitempty,min=1"`
	Code        *string              `json:"code" validate:"omitempty,min=1"`
	Description *string              `json:"description"`
	Workload    *int                 `json:"workload" validate:"omitempty,gt=0"`
	Status      *models.CourseStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// CourseService orchestrates course management.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every course, served from cache when possible.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if s.cache.Get(ctx, CourseListCacheKey, &courses) {
		return courses, nil
	}

	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	s.cache.Set(ctx, CourseListCacheKey, courses)
	return courses, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}

	course := &models.Course{Name: req.Name, Code: req.Code, Description: req.Description}
	if req.Workload != nil {
		course.Workload = *req.Workload
	}
	if req.Status != nil {
		course.Status = *req.Status
	}

	if err := s.repo.Create(ctx, course); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.cache.Invalidate(ctx, CourseListCacheKey)
	return course, nil
}

// Update merges the provided fields into an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}

	course, err := s.repo.Update(ctx, id, repository.CourseUpdate{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Workload:    req.Workload,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.cache.Invalidate(ctx, CourseListCacheKey)
	return course, nil
}

// Delete removes a course. Courses that still own classes are protected by
// the referential constraint and surface as a conflict.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "course still has classes")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.Invalidate(ctx, CourseListCacheKey)
	return nil
}
