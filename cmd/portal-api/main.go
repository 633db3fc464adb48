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
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-portal-api/api/swagger"
	"github.com/noah-isme/academic-portal-api/internal/handler"
	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/repository"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/cache"
	"github.com/noah-isme/academic-portal-api/pkg/config"
	"github.com/noah-isme/academic-portal-api/pkg/database"
	"github.com/noah-isme/academic-portal-api/pkg/jobs"
	"github.com/noah-isme/academic-portal-api/pkg/logger"
	"github.com/noah-isme/academic-portal-api/pkg/storage"
)

// @title Academic Portal API
// @version 1.0.0
// @description Teacher-facing academic operations and growth analytics
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type snapshotBackend interface {
	Insert(ctx context.Context, snapshot *models.WeeklySnapshot) error
	MaxWeekNumber(ctx context.Context) (int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySnapshot, error)
	RecentByStudents(ctx context.Context, studentIDs []string, limit int) (map[string][]models.WeeklySnapshot, error)
	ListByWeekRange(ctx context.Context, from, to int) ([]models.WeeklySnapshot, error)
}

type snapshotLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	calculator, err := service.NewOGICalculator(service.WeightsFromConfig(cfg.Growth))
	if err != nil {
		return fmt.Errorf("growth weights: %w", err)
	}
	aggregator := service.NewMetricAggregator(service.NewModuleCatalog(cfg.Growth.CourseModules, cfg.Growth.DefaultModuleCount))

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	readiness := map[string]handler.Pinger{"postgres": db}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and snapshot locking disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	var locker snapshotLocker
	if redisClient != nil {
		redisRepo := repository.NewCacheRepository(redisClient)
		cacheRepo = redisRepo
		readiness["redis"] = handler.PingerFunc(redisRepo.Ping)
		if cfg.Snapshots.LockEnabled {
			locker = repository.NewLockRepository(redisClient)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled)

	var snapshots snapshotBackend = repository.NewSnapshotRepository(db)
	if cfg.Snapshots.Store == config.SnapshotStoreMongo {
		client, mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background()) //nolint:errcheck
		mongoRepo := repository.NewSnapshotMongoRepository(mongoDB)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		snapshots = mongoRepo
		readiness["mongo"] = handler.PingerFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
	}

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(teacherRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	dashboardSvc := service.NewDashboardService(studentRepo, batchRepo, assignmentRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, assignmentRepo, quizRepo, attendanceRepo, snapshots, cacheSvc, validate, logr)
	batchSvc := service.NewBatchService(batchRepo, cacheSvc, validate, logr)
	assessmentSvc := service.NewAssessmentService(assignmentRepo, quizRepo, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, batchRepo, service.NewEditWindow(cfg.Attendance.EditWindow), cacheSvc, validate, logr)
	supportSvc := service.NewSupportService(supportRepo, validate, logr)
	snapshotSvc := service.NewSnapshotService(snapshots, studentRepo, quizRepo, assignmentRepo, aggregator, calculator, locker, cacheSvc, metrics, logr,
		service.SnapshotServiceConfig{WeekStrategy: cfg.Snapshots.WeekStrategy, LockTTL: cfg.Snapshots.LockTTL})
	analyticsSvc := service.NewAnalyticsService(studentRepo, quizRepo, assignmentRepo, attendanceRepo, batchRepo, snapshots, aggregator, cacheSvc, metrics, logr)
	leaderboardSvc := service.NewLeaderboardService(studentRepo, batchRepo, quizRepo, assignmentRepo, snapshots, snapshotSvc, cacheSvc, metrics, logr)

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return err
	}
	exportSvc := service.NewExportService(service.ExportSources{
		Students:    studentSvc,
		Attendance:  attendanceSvc,
		Tallies:     attendanceRepo,
		Leaderboard: leaderboardSvc,
	}, fileStore, storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}, logr)

	var reportHandler *handler.ReportHandler
	if cfg.Reports.Enabled {
		worker := service.NewReportWorker(reportRepo, exportSvc, metrics, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			BufferSize: 64,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, metrics, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		reportHandler = handler.NewReportHandler(reportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(cfg, logr, metrics, authSvc, routeHandlers{
		auth:        handler.NewAuthHandler(authSvc),
		dashboard:   handler.NewDashboardHandler(dashboardSvc),
		students:    handler.NewStudentHandler(studentSvc, attendanceSvc),
		batches:     handler.NewBatchHandler(batchSvc),
		assessments: handler.NewAssessmentHandler(assessmentSvc),
		attendance:  handler.NewAttendanceHandler(attendanceSvc),
		support:     handler.NewSupportHandler(supportSvc),
		analytics:   handler.NewAnalyticsHandler(analyticsSvc, snapshotSvc, studentSvc, exportSvc),
		leaderboard: handler.NewLeaderboardHandler(leaderboardSvc),
		reports:     reportHandler,
		metrics:     handler.NewMetricsHandler(metrics, readiness),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
