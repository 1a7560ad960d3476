package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tuition-roster/api/swagger"
	"github.com/noah-isme/tuition-roster/internal/handler"
	"github.com/noah-isme/tuition-roster/internal/repository"
	"github.com/noah-isme/tuition-roster/internal/service"
	"github.com/noah-isme/tuition-roster/internal/session"
	"github.com/noah-isme/tuition-roster/pkg/cache"
	"github.com/noah-isme/tuition-roster/pkg/config"
	"github.com/noah-isme/tuition-roster/pkg/database"
	"github.com/noah-isme/tuition-roster/pkg/logger"
)

// @title Tuition Roster Console API
// @version 1.0.0
// @description Student roster administration for a tuition centre.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	auditSvc := service.NewAuditService(repository.NewAdminRepository(db), cfg.Audit, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	schoolRepo := repository.NewSchoolRepository(db)
	lookupSvc := service.NewLookupService(
		schoolRepo,
		repository.NewClassRepository(db),
		repository.NewSubjectRepository(db),
		cacheSvc,
		auditSvc,
		validate,
		logr,
	)
	rosterSvc := service.NewRosterService(
		repository.NewStudentRepository(db),
		repository.NewParentRepository(db),
		schoolRepo,
		repository.NewEnrollmentRepository(db),
		lookupSvc,
		auditSvc,
		metricsSvc,
		logr,
	)
	authSvc := service.NewAuthService(repository.NewAdminRepository(db), cfg.Auth, validate, logr)

	sessions := session.NewManager(sessionStore(cfg, redisClient, logr), authSvc, cfg.Session, logr)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routerDeps{
		sessions:   sessions,
		roster:     handler.NewRosterHandler(rosterSvc, validate, logr, metricsSvc),
		auth:       handler.NewAuthHandler(sessions, auditSvc, validate, cfg.Session),
		lookups:    handler.NewLookupHandler(lookupSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, checks),
		metricsSvc: metricsSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func sessionStore(cfg *config.Config, client *redis.Client, logr *zap.Logger) session.Store {
	if cfg.Session.Store == config.SessionStoreRedis && client != nil {
		return session.NewRedisStore(client)
	}
	logr.Warn("using in-memory session store; sessions will not survive a restart")
	return session.NewMemoryStore()
}
