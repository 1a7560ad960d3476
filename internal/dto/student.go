package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// AddStudentForm is the add-student dialog payload. Parent fields are
// embedded because every new student gets its own parent row.
type AddStudentForm struct {
	StudentID        string   `json:"student_id" validate:"required"`
	FirstName        string   `json:"first_name" validate:"required"`
	LastName         string   `json:"last_name" validate:"required"`
	DateOfBirth      string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender           string   `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Address          string   `json:"address"`
	SchoolName       string   `json:"school_name"`
	ClassID          string   `json:"class_id"`
	FatherName       string   `json:"father_name"`
	FatherPhone      string   `json:"father_phone"`
	FatherOccupation string   `json:"father_occupation"`
	MotherName       string   `json:"mother_name"`
	MotherPhone      string   `json:"mother_phone"`
	MotherOccupation string   `json:"mother_occupation"`
	ParentAddress    string   `json:"parent_address"`
	ParentEmail      string   `json:"parent_email" validate:"omitempty,email"`
	SelectedSubjects []string `json:"selected_subjects" validate:"dive,required"`
	Remarks          string   `json:"remarks"`
}

// Parent builds the parent row carried by the form.
func (f AddStudentForm) Parent() models.Parent {
	return models.Parent{
		FatherName:       f.FatherName,
		FatherPhone:      f.FatherPhone,
		FatherOccupation: f.FatherOccupation,
		MotherName:       f.MotherName,
		MotherPhone:      f.MotherPhone,
		MotherOccupation: f.MotherOccupation,
		Address:          f.ParentAddress,
		Email:            f.ParentEmail,
	}
}

// UpdateStudentRequest is the edit dialog payload. Only these columns are
// written back; dates use the YYYY-MM-DD layout.
type UpdateStudentRequest struct {
	ID          string `json:"-" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address"`
	Status      string `json:"status" validate:"required,oneof=Active Left"`
	LeftDate    string `json:"left_date" validate:"required_if=Status Left"`
	LeftReason  string `json:"left_reason" validate:"required_if=Status Left"`
	Remarks     string `json:"remarks"`
}

// EditRequestFrom seeds an edit payload from the stored record.
func EditRequestFrom(s models.Student) UpdateStudentRequest {
	req := UpdateStudentRequest{
		ID:          s.ID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		DateOfBirth: FormatDate(s.DateOfBirth),
		Gender:      s.Gender,
		Phone:       s.Phone,
		Email:       s.Email,
		Address:     s.Address,
		Status:      string(s.Status),
		LeftDate:    FormatDate(s.LeftDate),
	}
	if s.LeftReason != nil {
		req.LeftReason = *s.LeftReason
	}
	if s.Remarks != nil {
		req.Remarks = *s.Remarks
	}
	return req
}

// MarkLeftForm collects the date and reason required to move a student to Left.
type MarkLeftForm struct {
	LeftDate   string `json:"left_date" validate:"required,datetime=2006-01-02"`
	LeftReason string `json:"left_reason" validate:"required"`
}

// Normalise trims surrounding whitespace so blank input fails validation.
func (f MarkLeftForm) Normalise() MarkLeftForm {
	return MarkLeftForm{LeftDate: strings.TrimSpace(f.LeftDate), LeftReason: strings.TrimSpace(f.LeftReason)}
}

// ConfirmRequest acknowledges a destructive or status-reverting action.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// CreateLookupRequest creates a class or subject row.
type CreateLookupRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// ParseDate parses an optional YYYY-MM-DD value; blank yields nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders an optional date as YYYY-MM-DD.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

// OptionalString maps blank strings to nil for nullable columns.
func OptionalString(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}
