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

// AdminRepository provides database access for console operators and their
// audit trail.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an admin row by username regardless of is_active.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	const query = `SELECT id, username, password, COALESCE(email, '') AS email, COALESCE(full_name, '') AS full_name, is_active, created_at FROM admin_users WHERE username = $1 LIMIT 1`
	var admin models.AdminUser
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// Upsert creates the admin row or, when the username exists, replaces its
// password and profile and re-activates it.
func (r *AdminRepository) Upsert(ctx context.Context, admin *models.AdminUser) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO admin_users (id, username, password, email, full_name, is_active, created_at)
        VALUES (:id, :username, :password, :email, :full_name, :is_active, :created_at)
        ON CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, email = EXCLUDED.email,
        full_name = EXCLUDED.full_name, is_active = EXCLUDED.is_active
        RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, admin)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&admin.ID); err != nil {
			return fmt.Errorf("scan admin id: %w", err)
		}
	}
	return rows.Err()
}

// SetActive toggles whether an admin may sign in.
func (r *AdminRepository) SetActive(ctx context.Context, username string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admin_users SET is_active = $2 WHERE username = $1`, username, active)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return requireAffected(res, "set admin active")
}

// CreateAuditLog appends an audit trail row.
func (r *AdminRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, admin_id, action, resource, resource_id, details, created_at)
        VALUES (:id, :admin_id, :action, :resource, :resource_id, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
