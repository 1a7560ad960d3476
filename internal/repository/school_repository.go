package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// SchoolRepository manages the schools lookup table.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns all schools ordered by name.
func (r *SchoolRepository) List(ctx context.Context) ([]models.School, error) {
	const query = `SELECT id, name, address, phone, created_at FROM schools ORDER BY name`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindByName matches a school name case-insensitively. It returns
// sql.ErrNoRows when no school carries the name.
func (r *SchoolRepository) FindByName(ctx context.Context, name string) (*models.School, error) {
	const query = `SELECT id, name, address, phone, created_at FROM schools WHERE LOWER(name) = LOWER($1) ORDER BY created_at LIMIT 1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school by name: %w", err)
	}
	return &school, nil
}

// Create inserts a school row.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	if school.CreatedAt.IsZero() {
		school.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schools (id, name, address, phone, created_at) VALUES (:id, :name, :address, :phone, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}
