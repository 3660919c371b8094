package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/records-api/internal/models"
)

// ErrClassFull is returned by Admit when the class has no free seat.
var ErrClassFull = errors.New("class capacity reached")

// EnrollmentRepository handles persistence of enrollments, including the
// capacity-checked admission path.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = "id, enrollment_date, status, student_id, class_id, created_at, updated_at"

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListDetails returns every enrollment with its student and its class joined
// with the owning course.
func (r *EnrollmentRepository) ListDetails(ctx context.Context) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.enrollment_date, e.status, e.student_id, e.class_id, e.created_at, e.updated_at,
        s.id AS "student.id", s.name AS "student.name", s.email AS "student.email", s.document AS "student.document",
        s.phone AS "student.phone", s.birth_date AS "student.birth_date", s.created_at AS "student.created_at", s.updated_at AS "student.updated_at",
        c.id AS "class.id", c.name AS "class.name", c.start_date AS "class.start_date", c.end_date AS "class.end_date",
        c.capacity AS "class.capacity", c.course_id AS "class.course_id", c.created_at AS "class.created_at", c.updated_at AS "class.updated_at",
        co.id AS "class.course.id", co.name AS "class.course.name", co.code AS "class.course.code", co.description AS "class.course.description",
        co.workload AS "class.course.workload", co.status AS "class.course.status", co.created_at AS "class.course.created_at", co.updated_at AS "class.course.updated_at"
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        ORDER BY e.enrollment_date DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// Admit creates the enrollment only if the class still has a free seat.
// The class row is locked for the duration of the count-then-insert sequence,
// so concurrent admissions for the same class serialize while admissions for
// different classes proceed independently. Every enrollment row counts
// against capacity, whatever its status.
//
// Returns sql.ErrNoRows when the class does not exist and ErrClassFull when
// the seat count has reached capacity; in both cases nothing is written.
func (r *EnrollmentRepository) Admit(ctx context.Context, enrollment *models.Enrollment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admission transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var class struct {
		ID       string `db:"id"`
		Capacity int    `db:"capacity"`
	}
	const lockQuery = `SELECT id, capacity FROM classes WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &class, lockQuery, enrollment.ClassID); err != nil {
		return err
	}

	var seated int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`
	if err = tx.GetContext(ctx, &seated, countQuery, enrollment.ClassID); err != nil {
		return fmt.Errorf("count enrollments: %w", err)
	}
	if seated >= class.Capacity {
		err = ErrClassFull
		return err
	}

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const insertQuery = `INSERT INTO enrollments (id, enrollment_date, status, student_id, class_id, created_at, updated_at)
        VALUES (:id, :enrollment_date, :status, :student_id, :class_id, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit admission: %w", err)
	}
	return nil
}

// EnrollmentUpdate carries the columns a partial update may touch. Status
// and date changes never re-check capacity.
type EnrollmentUpdate struct {
	Status         *models.EnrollmentStatus
	EnrollmentDate *time.Time
}

// Update merges the provided fields into the stored row and returns it.
func (r *EnrollmentRepository) Update(ctx context.Context, id string, upd EnrollmentUpdate) (*models.Enrollment, error) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.EnrollmentDate != nil {
		add("enrollment_date", *upd.EnrollmentDate)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE enrollments SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), enrollmentColumns)

	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, args...); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Delete removes an enrollment, freeing its seat for future admissions.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM enrollments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return requireAffected(result)
}
