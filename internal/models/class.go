package models

import "time"

// Class is a scheduled offering of a course with a seat capacity.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"startDate"`
	EndDate   time.Time `db:"end_date" json:"endDate"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CourseID  string    `db:"course_id" json:"courseId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassWithCourse carries a class and its owning course.
type ClassWithCourse struct {
	Class
	Course Course `db:"course" json:"course"`
}

// ClassDetail is the listing shape: class, course, and every enrollment with
// the enrolled student.
type ClassDetail struct {
	Class
	Course      Course                  `db:"course" json:"course"`
	Enrollments []EnrollmentWithStudent `json:"enrollments"`
}
