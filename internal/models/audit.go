package models

import "time"

// Audit actions recorded for roster writes and sessions.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionStudentCreate  = "STUDENT_CREATE"
	AuditActionStudentUpdate  = "STUDENT_UPDATE"
	AuditActionStudentDelete  = "STUDENT_DELETE"
	AuditActionStudentLeft    = "STUDENT_LEFT"
	AuditActionStudentActive  = "STUDENT_ACTIVE"
	AuditActionLookupCreate   = "LOOKUP_CREATE"
	AuditResourceStudent      = "student"
	AuditResourceSession      = "session"
	AuditResourceLookupPrefix = "lookup:"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	AdminID    *string   `db:"admin_id" json:"admin_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
