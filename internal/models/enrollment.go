package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Enrollment associates a student with a class. Rows count against the
// class capacity whatever their status.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollmentDate"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	StudentID      string           `db:"student_id" json:"studentId"`
	ClassID        string           `db:"class_id" json:"classId"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}

// EnrollmentWithStudent is an enrollment joined with its student.
type EnrollmentWithStudent struct {
	Enrollment
	Student Student `db:"student" json:"student"`
}

// EnrollmentDetail is the listing shape: enrollment, student, and the class
// with its course.
type EnrollmentDetail struct {
	Enrollment
	Student Student         `db:"student" json:"student"`
	Class   ClassWithCourse `db:"class" json:"class"`
}
