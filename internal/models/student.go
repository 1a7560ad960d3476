package models

import "time"

// StudentStatus is the lifecycle state of a student on the roster.
type StudentStatus string

// Student statuses.
const (
	StudentStatusActive StudentStatus = "Active"
	StudentStatusLeft   StudentStatus = "Left"
)

// DateLayout is the calendar-date format used for date-only columns and form fields.
const DateLayout = "2006-01-02"

// Student is a row of the students table. LeftDate and LeftReason are set
// exactly when Status is Left.
type Student struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	FirstName     string        `db:"first_name" json:"first_name"`
	LastName      string        `db:"last_name" json:"last_name"`
	DateOfBirth   *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender        string        `db:"gender" json:"gender"`
	Phone         string        `db:"phone" json:"phone"`
	Email         string        `db:"email" json:"email"`
	Address       string        `db:"address" json:"address"`
	AdmissionDate *time.Time    `db:"admission_date" json:"admission_date,omitempty"`
	Status        StudentStatus `db:"status" json:"status"`
	LeftDate      *time.Time    `db:"left_date" json:"left_date,omitempty"`
	LeftReason    *string       `db:"left_reason" json:"left_reason,omitempty"`
	Remarks       *string       `db:"remarks" json:"remarks,omitempty"`
	SchoolID      *string       `db:"school_id" json:"school_id,omitempty"`
	ClassID       *string       `db:"class_id" json:"class_id,omitempty"`
	ParentID      *string       `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name the way the roster displays and sorts it.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentRecord is a student together with its joined relations, as fetched
// for the roster.
type StudentRecord struct {
	Student
	School   *NamedRef                 `json:"school,omitempty"`
	Class    *NamedRef                 `json:"class,omitempty"`
	Parent   *ParentSummary            `json:"parent,omitempty"`
	Subjects []SubjectEnrollmentDetail `json:"student_subjects"`
}

// SchoolName returns the joined school name or an empty string.
func (r StudentRecord) SchoolName() string {
	if r.School == nil {
		return ""
	}
	return r.School.Name
}

// ClassName returns the joined class name or an empty string.
func (r StudentRecord) ClassName() string {
	if r.Class == nil {
		return ""
	}
	return r.Class.Name
}

// NamedRef is the name-only projection of a joined lookup row.
type NamedRef struct {
	Name string `json:"name"`
}

// StudentUpdate carries the mutable student columns written back by id.
// School, class and parent linkage and enrollments are never touched.
type StudentUpdate struct {
	ID          string        `db:"id"`
	FirstName   string        `db:"first_name"`
	LastName    string        `db:"last_name"`
	DateOfBirth *time.Time    `db:"date_of_birth"`
	Gender      string        `db:"gender"`
	Phone       string        `db:"phone"`
	Email       string        `db:"email"`
	Address     string        `db:"address"`
	Status      StudentStatus `db:"status"`
	LeftDate    *time.Time    `db:"left_date"`
	LeftReason  *string       `db:"left_reason"`
	Remarks     *string       `db:"remarks"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

// StatusChange moves a student between the Active and Left partitions.
type StatusChange struct {
	ID         string        `db:"id"`
	Status     StudentStatus `db:"status"`
	LeftDate   *time.Time    `db:"left_date"`
	LeftReason *string       `db:"left_reason"`
	UpdatedAt  time.Time     `db:"updated_at"`
}
