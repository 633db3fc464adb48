package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/repository"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/cache"
	"github.com/noah-isme/academic-portal-api/pkg/config"
	"github.com/noah-isme/academic-portal-api/pkg/database"
	"github.com/noah-isme/academic-portal-api/pkg/logger"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	calculator, err := service.NewOGICalculator(service.WeightsFromConfig(cfg.Growth))
	if err != nil {
		logr.Fatal("growth weights", zap.Error(err))
	}
	aggregator := service.NewMetricAggregator(service.NewModuleCatalog(cfg.Growth.CourseModules, cfg.Growth.DefaultModuleCount))

	var snapshots snapshotBackend = repository.NewSnapshotRepository(db)
	if cfg.Snapshots.Store == config.SnapshotStoreMongo {
		client, mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			logr.Fatal("connect mongo", zap.Error(err))
		}
		defer client.Disconnect(context.Background()) //nolint:errcheck
		snapshots = repository.NewSnapshotMongoRepository(mongoDB)
	}

	// Writes from the CLI must drop the API's cached analytics and honour its snapshot lock.
	var cacheRepo service.CacheRepository
	var locker snapshotLocker
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, cache invalidation and snapshot locking disabled", zap.Error(err))
	} else if redisClient != nil {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
		if cfg.Snapshots.LockEnabled {
			locker = repository.NewLockRepository(redisClient)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled)

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	snapshotSvc := service.NewSnapshotService(snapshots, studentRepo, quizRepo, assignmentRepo, aggregator, calculator, locker, cacheSvc, nil, logr,
		service.SnapshotServiceConfig{WeekStrategy: cfg.Snapshots.WeekStrategy, LockTTL: cfg.Snapshots.LockTTL})

	cli := commandLine{
		out: os.Stdout,
		teachers: service.NewAuthService(repository.NewTeacherRepository(db), validate, logr, service.AuthConfig{
			Secret:     cfg.JWT.Secret,
			Expiration: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		snapshots:   snapshotSvc,
		leaderboard: service.NewLeaderboardService(studentRepo, batchRepo, quizRepo, assignmentRepo, snapshots, snapshotSvc, cacheSvc, nil, logr),
		students:    service.NewStudentService(studentRepo, assignmentRepo, quizRepo, attendanceRepo, snapshots, cacheSvc, validate, logr),
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logr.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
