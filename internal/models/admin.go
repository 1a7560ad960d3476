package models

import "time"

// AdminUser is a console operator row. Password holds the literal secret, or
// a bcrypt hash when the bcrypt scheme is configured.
type AdminUser struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Identity returns the session projection of the admin row.
func (u AdminUser) Identity() AdminIdentity {
	return AdminIdentity{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}
}

// AdminIdentity is what the session slot persists.
type AdminIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// LoginRequest holds credentials for signing in.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
