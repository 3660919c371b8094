package models

import "time"

// CourseStatus marks whether a course is open for new classes.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "active"
	CourseStatusInactive CourseStatus = "inactive"
)

// Course represents a curricular course that classes are offered for.
type Course struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Code        string       `db:"code" json:"code"`
	Description *string      `db:"description" json:"description,omitempty"`
	Workload    int          `db:"workload" json:"workload"`
	Status      CourseStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}
