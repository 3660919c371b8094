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

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, name, email, document, phone, birth_date, created_at, updated_at"

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListDetails returns every student with the enrollment -> class -> course
// chain attached, mirroring what the listing endpoint exposes.
func (r *StudentRepository) ListDetails(ctx context.Context) ([]models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM students ORDER BY name ASC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	const enrollmentQuery = `SELECT e.id, e.enrollment_date, e.status, e.student_id, e.class_id, e.created_at, e.updated_at,
        c.id AS "class.id", c.name AS "class.name", c.start_date AS "class.start_date", c.end_date AS "class.end_date",
        c.capacity AS "class.capacity", c.course_id AS "class.course_id", c.created_at AS "class.created_at", c.updated_at AS "class.updated_at",
        co.id AS "class.course.id", co.name AS "class.course.name", co.code AS "class.course.code", co.description AS "class.course.description",
        co.workload AS "class.course.workload", co.status AS "class.course.status", co.created_at AS "class.course.created_at", co.updated_at AS "class.course.updated_at"
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        ORDER BY e.enrollment_date DESC`
	var enrollments []models.StudentEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, enrollmentQuery); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}

	byStudent := make(map[string][]models.StudentEnrollment, len(students))
	for _, e := range enrollments {
		byStudent[e.StudentID] = append(byStudent[e.StudentID], e)
	}

	details := make([]models.StudentDetail, 0, len(students))
	for _, s := range students {
		enrolled := byStudent[s.ID]
		if enrolled == nil {
			enrolled = []models.StudentEnrollment{}
		}
		details = append(details, models.StudentDetail{Student: s, Enrollments: enrolled})
	}
	return details, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, name, email, document, phone, birth_date, created_at, updated_at)
        VALUES (:id, :name, :email, :document, :phone, :birth_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// StudentUpdate carries the columns a partial update may touch.
type StudentUpdate struct {
	Name      *string
	Email     *string
	Document  *string
	Phone     *string
	BirthDate *time.Time
}

// Update merges the provided fields into the stored row and returns it.
func (r *StudentRepository) Update(ctx context.Context, id string, upd StudentUpdate) (*models.Student, error) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Document != nil {
		add("document", *upd.Document)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.BirthDate != nil {
		add("birth_date", *upd.BirthDate)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), studentColumns)

	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		return nil, err
	}
	return &student, nil
}

// Delete removes a student. Returns sql.ErrNoRows when the ID is absent.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(result)
}
