package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// ParentRepository persists guardian rows. A parent row is created alongside
// its student and never shared.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// Create inserts a parent row.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parents (id, father_name, father_phone, father_occupation, mother_name, mother_phone, mother_occupation, address, email, created_at)
        VALUES (:id, :father_name, :father_phone, :father_occupation, :mother_name, :mother_phone, :mother_occupation, :address, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}
