package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-roster/internal/handler"
	"github.com/noah-isme/tuition-roster/internal/middleware"
	"github.com/noah-isme/tuition-roster/internal/service"
	"github.com/noah-isme/tuition-roster/internal/session"
	"github.com/noah-isme/tuition-roster/pkg/config"
	"github.com/noah-isme/tuition-roster/pkg/logger"
	corsmiddleware "github.com/noah-isme/tuition-roster/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tuition-roster/pkg/middleware/requestid"
)

type routerDeps struct {
	sessions   *session.Manager
	roster     *handler.RosterHandler
	auth       *handler.AuthHandler
	lookups    *handler.LookupHandler
	metrics    *handler.MetricsHandler
	metricsSvc *service.MetricsService
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", deps.auth.Login)

	secured := api.Group("", middleware.Session(deps.sessions, cfg.Session.CookieName))
	secured.POST("/auth/logout", deps.auth.Logout)
	secured.GET("/auth/me", deps.auth.Me)

	secured.GET("/roster", deps.roster.View)
	secured.GET("/roster/export", deps.roster.Export)

	students := secured.Group("/students")
	students.GET("/:id", deps.roster.GetStudent)
	students.POST("", deps.roster.CreateStudent)
	students.PUT("/:id", deps.roster.UpdateStudent)
	students.DELETE("/:id", deps.roster.DeleteStudent)
	students.POST("/:id/leave", deps.roster.MarkLeft)
	students.POST("/:id/reactivate", deps.roster.Reactivate)

	secured.GET("/schools", deps.lookups.Schools)
	secured.GET("/classes", deps.lookups.Classes)
	secured.POST("/classes", deps.lookups.CreateClass)
	secured.GET("/subjects", deps.lookups.Subjects)
	secured.POST("/subjects", deps.lookups.CreateSubject)
	secured.GET("/metrics/summary", deps.metrics.Summary)

	return r
}
