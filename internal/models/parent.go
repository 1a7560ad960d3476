package models

import "time"

// Parent holds the guardian details owned by exactly one student.
type Parent struct {
	ID               string    `db:"id" json:"id"`
	FatherName       string    `db:"father_name" json:"father_name"`
	FatherPhone      string    `db:"father_phone" json:"father_phone"`
	FatherOccupation string    `db:"father_occupation" json:"father_occupation"`
	MotherName       string    `db:"mother_name" json:"mother_name"`
	MotherPhone      string    `db:"mother_phone" json:"mother_phone"`
	MotherOccupation string    `db:"mother_occupation" json:"mother_occupation"`
	Address          string    `db:"address" json:"address"`
	Email            string    `db:"email" json:"email"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ParentSummary is the parent projection joined onto roster records.
type ParentSummary struct {
	FatherName  string `json:"father_name"`
	MotherName  string `json:"mother_name"`
	Address     string `json:"address"`
	FatherPhone string `json:"father_phone"`
	MotherPhone string `json:"mother_phone"`
	Email       string `json:"email"`
}
