package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/session"
	"github.com/noah-isme/tuition-roster/pkg/config"
	"github.com/noah-isme/tuition-roster/pkg/jobs"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// AuditService writes audit entries through a background queue so that a
// slow audit table never delays a roster write. A nil *AuditService is a
// valid no-op recorder.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue[models.AuditLog]
	logger *zap.Logger
}

// NewAuditService constructs the service and its queue. Call Start before
// recording.
func NewAuditService(repo auditRepository, cfg config.AuditConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.write, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains nothing further and waits for workers to exit.
func (s *AuditService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Record enqueues an audit entry attributed to the admin attached to ctx.
// Failures are logged and never returned.
func (s *AuditService) Record(ctx context.Context, action, resource, resourceID string, details map[string]interface{}) {
	if s == nil {
		return
	}
	entry := models.AuditLog{ID: uuid.NewString(), Action: action, Resource: resource}
	if identity := session.IdentityFrom(ctx); identity != nil {
		adminID := identity.ID
		entry.AdminID = &adminID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if len(details) > 0 {
		payload, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("audit details not serialisable", zap.String("action", action), zap.Error(err))
		} else {
			entry.Details = payload
		}
	}
	if err := s.queue.Enqueue(jobs.Job[models.AuditLog]{ID: entry.ID, Payload: entry}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", action), zap.Error(err))
	}
}

func (s *AuditService) write(ctx context.Context, job jobs.Job[models.AuditLog]) error {
	entry := job.Payload
	return s.repo.CreateAuditLog(ctx, &entry)
}
