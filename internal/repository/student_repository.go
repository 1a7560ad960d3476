package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentRelationsQuery = `SELECT s.id, s.student_id, s.first_name, s.last_name, s.date_of_birth,
        COALESCE(s.gender, '') AS gender, COALESCE(s.phone, '') AS phone, COALESCE(s.email, '') AS email,
        COALESCE(s.address, '') AS address, s.admission_date, COALESCE(s.status, 'Active') AS status,
        s.left_date, s.left_reason, s.remarks, s.school_id, s.class_id, s.parent_id,
        s.created_at, COALESCE(s.updated_at, s.created_at) AS updated_at,
        sc.name AS school_name, c.name AS class_name, p.id AS parent_row_id,
        p.father_name, p.mother_name, p.address AS parent_address, p.father_phone, p.mother_phone, p.email AS parent_email
        FROM students s
        LEFT JOIN schools sc ON sc.id = s.school_id
        LEFT JOIN classes c ON c.id = s.class_id
        LEFT JOIN parents p ON p.id = s.parent_id`

const studentSubjectsQuery = `SELECT ss.student_id, sub.name AS subject_name, sub.description AS subject_description, COALESCE(ss.status, '') AS status
        FROM student_subjects ss
        JOIN subjects sub ON sub.id = ss.subject_id
        WHERE ss.student_id = ANY($1::uuid[])
        ORDER BY sub.name`

type studentRelationRow struct {
	models.Student
	SchoolName    *string `db:"school_name"`
	ClassName     *string `db:"class_name"`
	ParentRowID   *string `db:"parent_row_id"`
	FatherName    *string `db:"father_name"`
	MotherName    *string `db:"mother_name"`
	ParentAddress *string `db:"parent_address"`
	FatherPhone   *string `db:"father_phone"`
	MotherPhone   *string `db:"mother_phone"`
	ParentEmail   *string `db:"parent_email"`
}

func (row studentRelationRow) record() models.StudentRecord {
	rec := models.StudentRecord{Student: row.Student, Subjects: []models.SubjectEnrollmentDetail{}}
	if row.SchoolName != nil {
		rec.School = &models.NamedRef{Name: *row.SchoolName}
	}
	if row.ClassName != nil {
		rec.Class = &models.NamedRef{Name: *row.ClassName}
	}
	if row.ParentRowID != nil {
		rec.Parent = &models.ParentSummary{
			FatherName:  deref(row.FatherName),
			MotherName:  deref(row.MotherName),
			Address:     deref(row.ParentAddress),
			FatherPhone: deref(row.FatherPhone),
			MotherPhone: deref(row.MotherPhone),
			Email:       deref(row.ParentEmail),
		}
	}
	return rec
}

// ListWithRelations returns every student joined with school, class, parent
// and subject enrollments, newest first.
func (r *StudentRepository) ListWithRelations(ctx context.Context) ([]models.StudentRecord, error) {
	var rows []studentRelationRow
	if err := r.db.SelectContext(ctx, &rows, studentRelationsQuery+" ORDER BY s.created_at DESC"); err != nil {
		return nil, fmt.Errorf("list students with relations: %w", err)
	}
	records := make([]models.StudentRecord, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		records[i] = row.record()
		ids[i] = row.ID
	}
	if err := r.attachSubjects(ctx, records, ids); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *StudentRepository) attachSubjects(ctx context.Context, records []models.StudentRecord, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var subjects []models.SubjectEnrollmentDetail
	if err := r.db.SelectContext(ctx, &subjects, studentSubjectsQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("list student subjects: %w", err)
	}
	index := make(map[string]int, len(records))
	for i := range records {
		index[records[i].ID] = i
	}
	for _, subject := range subjects {
		if i, ok := index[subject.StudentID]; ok {
			records[i].Subjects = append(records[i].Subjects, subject)
		}
	}
	return nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_id, first_name, last_name, date_of_birth, gender, phone, email, address,
        admission_date, status, left_date, left_reason, remarks, school_id, class_id, parent_id, created_at, updated_at)
        VALUES (:id, :student_id, :first_name, :last_name, :date_of_birth, :gender, :phone, :email, :address,
        :admission_date, :status, :left_date, :left_reason, :remarks, :school_id, :class_id, :parent_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update writes the mutable student columns by id.
func (r *StudentRepository) Update(ctx context.Context, update models.StudentUpdate) error {
	update.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, date_of_birth = :date_of_birth,
        gender = :gender, phone = :phone, email = :email, address = :address, status = :status,
        left_date = :left_date, left_reason = :left_reason, remarks = :remarks, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, update)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(res, "update student")
}

// UpdateStatus moves a student between Active and Left.
func (r *StudentRepository) UpdateStatus(ctx context.Context, change models.StatusChange) error {
	change.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET status = :status, left_date = :left_date, left_reason = :left_reason, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, change)
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return requireAffected(res, "update student status")
}

// Delete removes a student row. Parent and enrollment rows are left to the
// database's referential policy.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res, "delete student")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
