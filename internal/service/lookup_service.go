package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/roster"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

// Lookup cache keys.
const (
	CacheKeySchools  = "lookup:schools"
	CacheKeyClasses  = "lookup:classes"
	CacheKeySubjects = "lookup:subjects"
)

type schoolLister interface {
	List(ctx context.Context) ([]models.School, error)
}

type classRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
}

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// LookupService serves the school, class and subject reference lists,
// reading through the lookup cache when it is enabled.
type LookupService struct {
	schools   schoolLister
	classes   classRepository
	subjects  subjectRepository
	cache     *CacheService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLookupService constructs a LookupService. cache and audit may be nil.
func NewLookupService(schools schoolLister, classes classRepository, subjects subjectRepository, cache *CacheService, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *LookupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{schools: schools, classes: classes, subjects: subjects, cache: cache, audit: audit, validator: validate, logger: logger}
}

// All returns every reference list.
func (s *LookupService) All(ctx context.Context) (roster.Lookups, error) {
	schools, err := s.Schools(ctx)
	if err != nil {
		return roster.Lookups{}, err
	}
	classes, err := s.Classes(ctx)
	if err != nil {
		return roster.Lookups{}, err
	}
	subjects, err := s.Subjects(ctx)
	if err != nil {
		return roster.Lookups{}, err
	}
	return roster.Lookups{Schools: schools, Classes: classes, Subjects: subjects}, nil
}

// Schools lists schools ordered by name.
func (s *LookupService) Schools(ctx context.Context) ([]models.School, error) {
	return cachedList(ctx, s.cache, CacheKeySchools, s.schools.List)
}

// Classes lists classes ordered by name.
func (s *LookupService) Classes(ctx context.Context) ([]models.Class, error) {
	return cachedList(ctx, s.cache, CacheKeyClasses, s.classes.List)
}

// Subjects lists subjects ordered by name.
func (s *LookupService) Subjects(ctx context.Context) ([]models.Subject, error) {
	return cachedList(ctx, s.cache, CacheKeySubjects, s.subjects.List)
}

// InvalidateSchools drops the cached school list after a school is created.
func (s *LookupService) InvalidateSchools(ctx context.Context) {
	s.cache.Invalidate(ctx, CacheKeySchools)
}

// CreateClass adds a class row.
func (s *LookupService) CreateClass(ctx context.Context, req dto.CreateLookupRequest) (*models.Class, error) {
	if err := s.validateLookup(&req); err != nil {
		return nil, err
	}
	class := &models.Class{Name: req.Name, Description: dto.OptionalString(req.Description)}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, s.createFailed("class", err)
	}
	s.cache.Invalidate(ctx, CacheKeyClasses)
	s.audit.Record(ctx, models.AuditActionLookupCreate, models.AuditResourceLookupPrefix+"class", class.ID, map[string]interface{}{"name": class.Name})
	return class, nil
}

// CreateSubject adds a subject row.
func (s *LookupService) CreateSubject(ctx context.Context, req dto.CreateLookupRequest) (*models.Subject, error) {
	if err := s.validateLookup(&req); err != nil {
		return nil, err
	}
	subject := &models.Subject{Name: req.Name, Description: dto.OptionalString(req.Description)}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, s.createFailed("subject", err)
	}
	s.cache.Invalidate(ctx, CacheKeySubjects)
	s.audit.Record(ctx, models.AuditActionLookupCreate, models.AuditResourceLookupPrefix+"subject", subject.ID, map[string]interface{}{"name": subject.Name})
	return subject, nil
}

func (s *LookupService) validateLookup(req *dto.CreateLookupRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid lookup payload")
	}
	return nil
}

func (s *LookupService) createFailed(kind string, err error) error {
	s.logger.Error("failed to create lookup row", zap.String("kind", kind), zap.Error(err))
	return appErrors.MutationFailed(fmt.Sprintf("create %s", kind), err)
}

func cachedList[T any](ctx context.Context, cache *CacheService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var items []T
	if cache.Get(ctx, key, &items) {
		return items, nil
	}
	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	cache.Set(ctx, key, items)
	return items, nil
}
