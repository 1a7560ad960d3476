package models

import "time"

// Subject is a course a student can be enrolled in.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentStatusActive is the status given to newly created subject enrollments.
const EnrollmentStatusActive = "Active"

// SubjectEnrollment is a row of the student_subjects join table.
type SubjectEnrollment struct {
	ID             string     `db:"id" json:"id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	SubjectID      string     `db:"subject_id" json:"subject_id"`
	EnrollmentDate *time.Time `db:"enrollment_date" json:"enrollment_date,omitempty"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// SubjectEnrollmentDetail is the enrollment projection joined onto roster records.
type SubjectEnrollmentDetail struct {
	StudentID   string  `db:"student_id" json:"-"`
	Name        string  `db:"subject_name" json:"name"`
	Description *string `db:"subject_description" json:"description,omitempty"`
	Status      string  `db:"status" json:"status"`
}
