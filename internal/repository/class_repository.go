package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsys/records-api/internal/models"
)

// ClassRepository handles persistence of classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = "id, name, start_date, end_date, capacity, course_id, created_at, updated_at"

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListDetails returns every class with its course and enrollments, each
// enrollment carrying the enrolled student.
func (r *ClassRepository) ListDetails(ctx context.Context) ([]models.ClassDetail, error) {
	const classQuery = `SELECT c.id, c.name, c.start_date, c.end_date, c.capacity, c.course_id, c.created_at, c.updated_at,
        co.id AS "course.id", co.name AS "course.name", co.code AS "course.code", co.description AS "course.description",
        co.workload AS "course.workload", co.status AS "course.status", co.created_at AS "course.created_at", co.updated_at AS "course.updated_at"
        FROM classes c
        JOIN courses co ON co.id = c.course_id
        ORDER BY c.start_date DESC`
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, classQuery); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	const enrollmentQuery = `SELECT e.id, e.enrollment_date, e.status, e.student_id, e.class_id, e.created_at, e.updated_at,
        s.id AS "student.id", s.name AS "student.name", s.email AS "student.email", s.document AS "student.document",
        s.phone AS "student.phone", s.birth_date AS "student.birth_date", s.created_at AS "student.created_at", s.updated_at AS "student.updated_at"
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        ORDER BY e.enrollment_date DESC`
	var enrollments []models.EnrollmentWithStudent
	if err := r.db.SelectContext(ctx, &enrollments, enrollmentQuery); err != nil {
		return nil, fmt.Errorf("list class enrollments: %w", err)
	}

	byClass := make(map[string][]models.EnrollmentWithStudent, len(classes))
	for _, e := range enrollments {
		byClass[e.ClassID] = append(byClass[e.ClassID], e)
	}
	for i := range classes {
		enrolled := byClass[classes[i].ID]
		if enrolled == nil {
			enrolled = []models.EnrollmentWithStudent{}
		}
		classes[i].Enrollments = enrolled
	}
	return classes, nil
}

// Create persists a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.Capacity == 0 {
		class.Capacity = 30
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, start_date, end_date, capacity, course_id, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :capacity, :course_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// ClassUpdate carries the columns a partial update may touch. Shrinking
// capacity below the current enrollment count is allowed; only admission
// enforces the bound.
type ClassUpdate struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Capacity  *int
	CourseID  *string
}

// Update merges the provided fields into the stored row and returns it.
func (r *ClassRepository) Update(ctx context.Context, id string, upd ClassUpdate) (*models.Class, error) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.EndDate != nil {
		add("end_date", *upd.EndDate)
	}
	if upd.Capacity != nil {
		add("capacity", *upd.Capacity)
	}
	if upd.CourseID != nil {
		add("course_id", *upd.CourseID)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE classes SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), classColumns)

	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, args...); err != nil {
		return nil, err
	}
	return &class, nil
}

// Delete removes a class. Returns sql.ErrNoRows when the ID is absent.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return requireAffected(result)
}
