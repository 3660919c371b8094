package models

import "time"

// Student represents a person who can be enrolled into classes.
type Student struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Email     string     `db:"email" json:"email"`
	Document  string     `db:"document" json:"document"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// StudentDetail is a student together with the enrollment chain the listing
// endpoint exposes (enrollment -> class -> course).
type StudentDetail struct {
	Student
	Enrollments []StudentEnrollment `json:"enrollments"`
}

// StudentEnrollment is one of a student's enrollments with its class context.
type StudentEnrollment struct {
	Enrollment
	Class ClassWithCourse `db:"class" json:"class"`
}
