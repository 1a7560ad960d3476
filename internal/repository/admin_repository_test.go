package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-roster/internal/models"
)

func TestAdminRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "password", "email", "full_name", "is_active", "created_at"}).
		AddRow("adm-1", "admin", "secret", "admin@example.com", "Admin", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_users WHERE username = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	admin, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "secret", admin.Password)
	assert.Equal(t, models.AdminIdentity{ID: "adm-1", Username: "admin", Email: "admin@example.com", FullName: "Admin"}, admin.Identity())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryUpsertReturnsExistingID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery("INSERT INTO admin_users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("adm-existing"))

	admin := &models.AdminUser{Username: "admin", Password: "secret", IsActive: true}
	require.NoError(t, repo.Upsert(context.Background(), admin))
	assert.Equal(t, "adm-existing", admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionStudentCreate, Resource: models.AuditResourceStudent}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
