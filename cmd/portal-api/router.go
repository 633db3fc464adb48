package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/handler"
	"github.com/noah-isme/academic-portal-api/internal/middleware"
	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/config"
	"github.com/noah-isme/academic-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-portal-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	auth        *handler.AuthHandler
	dashboard   *handler.DashboardHandler
	students    *handler.StudentHandler
	batches     *handler.BatchHandler
	assessments *handler.AssessmentHandler
	attendance  *handler.AttendanceHandler
	support     *handler.SupportHandler
	analytics   *handler.AnalyticsHandler
	leaderboard *handler.LeaderboardHandler
	reports     *handler.ReportHandler
	metrics     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, auth *service.AuthService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)
	if h.reports != nil {
		api.GET("/export/:token", h.reports.Download)
	}

	secured := api.Group("", middleware.JWT(auth))
	secured.GET("/auth/me", h.auth.Me)

	admin := secured.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/teachers", h.auth.ListTeachers)
	admin.POST("/teachers", h.auth.RegisterTeacher)

	secured.GET("/dashboard", h.dashboard.Stats)

	students := secured.Group("/students")
	students.GET("", h.students.List)
	students.POST("", h.students.Create)
	students.GET("/:id", h.students.Get)
	students.PUT("/:id", h.students.Update)
	students.GET("/:id/attendance", h.students.Attendance)

	batches := secured.Group("/batches")
	batches.GET("", h.batches.List)
	batches.POST("", h.batches.Create)
	batches.PUT("/:id", h.batches.Update)
	batches.POST("/:id/end", h.batches.End)

	assignments := secured.Group("/assignments")
	assignments.GET("", h.assessments.ListAssignments)
	assignments.POST("", h.assessments.CreateAssignment)
	assignments.PUT("/:id", h.assessments.UpdateAssignment)
	assignments.POST("/:id/evaluate", h.assessments.Evaluate)
	assignments.POST("/:id/submissions", h.assessments.RecordSubmission)

	quizzes := secured.Group("/quizzes")
	quizzes.GET("", h.assessments.ListQuizzes)
	quizzes.POST("", h.assessments.CreateQuiz)
	quizzes.GET("/:id/attempts", h.assessments.Attempts)
	quizzes.POST("/:id/attempts", h.assessments.RecordAttempt)
	quizzes.PUT("/:id/restrict", h.assessments.Restrict)

	attendance := secured.Group("/attendance")
	attendance.GET("", h.attendance.List)
	attendance.POST("", h.attendance.Submit)
	attendance.PUT("/:id", h.attendance.Edit)

	support := secured.Group("/support")
	support.GET("", h.support.List)
	support.POST("", h.support.Create)
	support.POST("/:id/reply", h.support.Reply)
	support.POST("/:id/resolve", h.support.Resolve)
	support.POST("/:id/backup-class", h.support.ScheduleBackup)

	analytics := secured.Group("/analytics")
	analytics.GET("/class", h.analytics.Class)
	analytics.GET("/students", h.analytics.Students)
	analytics.GET("/snapshots", h.analytics.Snapshots)
	analytics.POST("/generate-snapshots", h.analytics.GenerateSnapshots)
	analytics.GET("/download/:studentId", h.analytics.Download)
	analytics.GET("/system", h.analytics.System)

	secured.GET("/leaderboard", h.leaderboard.Get)
	secured.POST("/leaderboard/update", h.leaderboard.Update)

	if h.reports != nil {
		secured.POST("/reports/generate", h.reports.Generate)
		secured.GET("/reports/status/:id", h.reports.Status)
	}

	return r
}
