package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/internal/handler"
	"github.com/senai-sm/school-manager/internal/middleware"
	"github.com/senai-sm/school-manager/internal/models"
	"github.com/senai-sm/school-manager/pkg/config"
	"github.com/senai-sm/school-manager/pkg/logger"
	corsmiddleware "github.com/senai-sm/school-manager/pkg/middleware/cors"
	reqidmiddleware "github.com/senai-sm/school-manager/pkg/middleware/requestid"
)

type routeHandlers struct {
	auth        *handler.AuthHandler
	performance *handler.PerformanceHandler
	records     *handler.RecordHandler
	dashboard   *handler.DashboardHandler
	documents   *handler.DocumentHandler
	exports     *handler.ExportHandler
	metrics     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, observer middleware.RequestObserver, tokens middleware.TokenValidator, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []models.UserRole{models.RoleSecretaria, models.RoleCoordenacao}
	academic := []models.UserRole{models.RoleProfessor, models.RoleSecretaria, models.RoleCoordenacao}
	selfOrAcademic := []string{middleware.Self, string(models.RoleProfessor), string(models.RoleSecretaria), string(models.RoleCoordenacao)}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)
	api.GET("/documents/verify/:code", h.documents.Verify)
	api.GET("/documents/download/:token", h.documents.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	secured.GET("/auth/me", h.auth.Me)

	secured.GET("/dashboard", h.dashboard.Me)
	secured.GET("/dashboard/aluno", middleware.RequireRoles(models.RoleAluno), h.dashboard.Aluno)
	secured.GET("/dashboard/professor", middleware.RequireRoles(models.RoleProfessor), h.dashboard.Professor)
	secured.GET("/dashboard/secretaria", middleware.RequireRoles(models.RoleSecretaria), h.dashboard.Secretaria)
	secured.GET("/dashboard/coordenacao", middleware.RequireRoles(models.RoleCoordenacao), h.dashboard.Coordenacao)

	students := secured.Group("/students/:id")
	students.Use(middleware.RBAC(selfOrAcademic...))
	students.GET("/performance", h.performance.Student)
	students.GET("/report-card", h.performance.ReportCard)
	students.GET("/documents", h.documents.ListForStudent)

	classes := secured.Group("/classes/:id")
	classes.Use(middleware.RequireRoles(academic...))
	classes.GET("/performance", h.performance.Class)
	classes.GET("/performance/export", middleware.Audit(logr, "export", "class_performance"), h.exports.ClassPerformance)
	classes.GET("/rollup", h.performance.ClassRollup)

	secured.GET("/courses/:id/rollup", middleware.RequireRoles(staff...), h.performance.CourseRollup)
	secured.GET("/efficiency/courses", middleware.RequireRoles(staff...), h.performance.CourseEfficiency)
	secured.GET("/institution/rollup", middleware.RequireRoles(staff...), h.performance.InstitutionRollup)
	secured.GET("/at-risk", middleware.RequireRoles(academic...), h.performance.AtRisk)

	secured.GET("/records", h.performance.Records)
	secured.PUT("/records", middleware.RequireRoles(academic...), middleware.Audit(logr, "upsert", "student_record"), h.records.Upsert)

	secured.POST("/documents", middleware.Audit(logr, "issue", "document"), h.documents.Issue)
	secured.POST("/documents/batch", middleware.RequireRoles(staff...), middleware.Audit(logr, "issue_batch", "document"), h.documents.Batch)

	secured.GET("/metrics/snapshot", middleware.RequireRoles(models.RoleCoordenacao), h.metrics.Snapshot)

	return r
}
