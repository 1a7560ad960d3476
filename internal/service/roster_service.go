package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/roster"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

type studentRepository interface {
	ListWithRelations(ctx context.Context) ([]models.StudentRecord, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, update models.StudentUpdate) error
	UpdateStatus(ctx context.Context, change models.StatusChange) error
	Delete(ctx context.Context, id string) error
}

type parentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
}

type schoolRepository interface {
	FindByName(ctx context.Context, name string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
}

type enrollmentRepository interface {
	CreateBulk(ctx context.Context, enrollments []models.SubjectEnrollment) error
}

// RosterService runs the multi-step roster writes against the repositories
// and serves the roster view-model as its record store.
type RosterService struct {
	students    studentRepository
	parents     parentRepository
	schools     schoolRepository
	enrollments enrollmentRepository
	lookups     *LookupService
	audit       *AuditService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

var _ roster.Store = (*RosterService)(nil)

// NewRosterService constructs a RosterService. audit and metrics may be nil.
func NewRosterService(students studentRepository, parents parentRepository, schools schoolRepository, enrollments enrollmentRepository, lookups *LookupService, audit *AuditService, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		students:    students,
		parents:     parents,
		schools:     schools,
		enrollments: enrollments,
		lookups:     lookups,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// ListStudents fetches the roster with all relations, newest first.
func (s *RosterService) ListStudents(ctx context.Context) ([]models.StudentRecord, error) {
	start := time.Now()
	records, err := s.students.ListWithRelations(ctx)
	s.metrics.ObserveDBQuery("list_students_with_relations", time.Since(start))
	return records, err
}

// ListLookups returns the school, class and subject lists.
func (s *RosterService) ListLookups(ctx context.Context) (roster.Lookups, error) {
	return s.lookups.All(ctx)
}

// AddStudent resolves the school, then creates parent, student and
// enrollments in that order. The steps are not transactional: if a later
// step fails the rows already written stay behind and are logged.
func (s *RosterService) AddStudent(ctx context.Context, form dto.AddStudentForm) (*models.Student, error) {
	today := s.today()
	dob, err := dto.ParseDate(form.DateOfBirth)
	if err != nil {
		return nil, appErrors.Validation(err, "date_of_birth must be YYYY-MM-DD")
	}

	schoolID, err := s.resolveSchool(ctx, form.SchoolName)
	if err != nil {
		return nil, err
	}

	parent := form.Parent()
	if err := s.parents.Create(ctx, &parent); err != nil {
		return nil, err
	}

	student := &models.Student{
		StudentID:     strings.TrimSpace(form.StudentID),
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		DateOfBirth:   dob,
		Gender:        form.Gender,
		Phone:         form.Phone,
		Email:         form.Email,
		Address:       form.Address,
		AdmissionDate: &today,
		Status:        models.StudentStatusActive,
		Remarks:       dto.OptionalString(form.Remarks),
		SchoolID:      schoolID,
		ClassID:       dto.OptionalString(form.ClassID),
		ParentID:      &parent.ID,
	}
	if err := s.students.Create(ctx, student); err != nil {
		s.logOrphans(parent.ID, "", err)
		return nil, err
	}

	if len(form.SelectedSubjects) > 0 {
		enrollments := make([]models.SubjectEnrollment, 0, len(form.SelectedSubjects))
		for _, subjectID := range form.SelectedSubjects {
			enrollments = append(enrollments, models.SubjectEnrollment{
				StudentID:      student.ID,
				SubjectID:      subjectID,
				EnrollmentDate: &today,
				Status:         models.EnrollmentStatusActive,
			})
		}
		if err := s.enrollments.CreateBulk(ctx, enrollments); err != nil {
			s.logOrphans(parent.ID, student.ID, err)
			return nil, err
		}
	}

	s.audit.Record(ctx, models.AuditActionStudentCreate, models.AuditResourceStudent, student.ID, map[string]interface{}{
		"student_id": student.StudentID,
		"subjects":   len(form.SelectedSubjects),
	})
	return student, nil
}

func (s *RosterService) resolveSchool(ctx context.Context, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	existing, err := s.schools.FindByName(ctx, name)
	if err == nil {
		return &existing.ID, nil
	}
	if !isNoRows(err) {
		return nil, err
	}
	school := &models.School{Name: name}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, err
	}
	s.lookups.InvalidateSchools(ctx)
	return &school.ID, nil
}

func (s *RosterService) logOrphans(parentID, studentID string, cause error) {
	fields := []zap.Field{zap.String("parent_id", parentID), zap.Error(cause)}
	if studentID != "" {
		fields = append(fields, zap.String("student_id", studentID))
	}
	s.logger.Warn("add student failed after partial write; rows left in place", fields...)
}

// UpdateStudent writes the mutable student columns.
func (s *RosterService) UpdateStudent(ctx context.Context, update models.StudentUpdate) error {
	if err := s.students.Update(ctx, update); err != nil {
		return notFoundOr(err)
	}
	s.audit.Record(ctx, models.AuditActionStudentUpdate, models.AuditResourceStudent, update.ID, map[string]interface{}{"status": update.Status})
	return nil
}

// DeleteStudent removes the student row.
func (s *RosterService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return notFoundOr(err)
	}
	s.audit.Record(ctx, models.AuditActionStudentDelete, models.AuditResourceStudent, id, nil)
	return nil
}

// SetStatus moves the student between Active and Left.
func (s *RosterService) SetStatus(ctx context.Context, change models.StatusChange) error {
	if err := s.students.UpdateStatus(ctx, change); err != nil {
		return notFoundOr(err)
	}
	action := models.AuditActionStudentActive
	details := map[string]interface{}{}
	if change.Status == models.StudentStatusLeft {
		action = models.AuditActionStudentLeft
		details["left_date"] = dto.FormatDate(change.LeftDate)
		if change.LeftReason != nil {
			details["left_reason"] = *change.LeftReason
		}
	}
	s.audit.Record(ctx, action, models.AuditResourceStudent, change.ID, details)
	return nil
}

func (s *RosterService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func notFoundOr(err error) error {
	if isNoRows(err) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student not found")
	}
	return err
}
