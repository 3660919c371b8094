package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsys/records-api/internal/models"
	"github.com/acadsys/records-api/internal/repository"
	appErrors "github.com/acadsys/records-api/pkg/errors"
)

type enrollmentRepository interface {
	ListDetails(ctx context.Context) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Admit(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, id string, upd repository.EnrollmentUpdate) (*models.Enrollment, error)
	Delete(ctx context.Context, id string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// EnrollRequest describes enrollment creation payload.
type EnrollRequest struct {
	StudentID      string                   `json:"studentId" validate:"required"`
	ClassID        string                   `json:"classId" validate:"required"`
	Status         *models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=active cancelled completed"`
	EnrollmentDate *string                  `json:"enrollmentDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateEnrollmentRequest describes a partial enrollment update.
type UpdateEnrollmentRequest struct {
	Status         *models.EnrollmentStatus `json:"status" validate:"omitempty,oneof=active cancelled completed"`
	EnrollmentDate *string                  `json:"enrollmentDate" validate:"omitempty,datetime=2006-01-02"`
}

// EnrollmentService owns the admission decision and enrollment lifecycle.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, metrics: metrics, validator: validate, logger: logger}
}

// List returns every enrollment with its student and class context.
func (s *EnrollmentService) List(ctx context.Context) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Enroll admits a student into a class, subject to the capacity bound.
// The same student may hold several enrollments in one class; only capacity
// limits them.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, ClassID: req.ClassID}
	if req.Status != nil {
		enrollment.Status = *req.Status
	}
	if req.EnrollmentDate != nil {
		date, err := parseDate(*req.EnrollmentDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment date")
		}
		enrollment.EnrollmentDate = date
	}

	if err := s.repo.Admit(ctx, enrollment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		if errors.Is(err, repository.ErrClassFull) {
			if s.metrics != nil {
				s.metrics.RecordAdmission(false)
			}
			s.logger.Info("admission rejected",
				zap.String("class_id", req.ClassID),
				zap.String("student_id", req.StudentID))
			return nil, appErrors.ErrCapacityExceeded
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if s.metrics != nil {
		s.metrics.RecordAdmission(true)
	}
	return enrollment, nil
}

// Update changes status or date. Capacity is never re-checked here; freeing
// a seat only relaxes future admissions.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}

	upd := repository.EnrollmentUpdate{Status: req.Status}
	if req.EnrollmentDate != nil {
		date, err := parseDate(*req.EnrollmentDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment date")
		}
		upd.EnrollmentDate = &date
	}

	enrollment, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}

// Delete removes an enrollment, freeing its seat.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
