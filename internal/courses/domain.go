package courses

import "time"

// Course is a catalogue entry students can enroll in. CourseCode is optional;
// when present it is unique.
type Course struct {
	ID          int64      `json:"id"`
	CourseName  string     `json:"course_name"`
	CourseCode  string     `json:"course_code,omitempty"`
	Description string     `json:"description,omitempty"`
	Semester    string     `json:"semester,omitempty"`
	Credits     int        `json:"credits"`
	Students    []Enrollee `json:"students,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Enrollee is the course-side view of an enrolled student.
type Enrollee struct {
	AccountID     int64  `json:"id"`
	StudentNumber string `json:"student_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
}
