package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// EnrollmentRepository writes student_subjects rows.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateBulk inserts all enrollments in a single statement. An empty slice is
// a no-op.
func (r *EnrollmentRepository) CreateBulk(ctx context.Context, enrollments []models.SubjectEnrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range enrollments {
		if enrollments[i].ID == "" {
			enrollments[i].ID = uuid.NewString()
		}
		if enrollments[i].CreatedAt.IsZero() {
			enrollments[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO student_subjects (id, student_id, subject_id, enrollment_date, status, created_at)
        VALUES (:id, :student_id, :subject_id, :enrollment_date, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollments); err != nil {
		return fmt.Errorf("create subject enrollments: %w", err)
	}
	return nil
}
