package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/repository"
	"github.com/noah-isme/academic-portal-api/pkg/config"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

const snapshotLockKey = "lock:snapshot-generation"

type snapshotStore interface {
	Insert(ctx context.Context, snapshot *models.WeeklySnapshot) error
	MaxWeekNumber(ctx context.Context) (int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySnapshot, error)
	RecentByStudents(ctx context.Context, studentIDs []string, limit int) (map[string][]models.WeeklySnapshot, error)
	ListByWeekRange(ctx context.Context, from, to int) ([]models.WeeklySnapshot, error)
}

type studentLister interface {
	ListAll(ctx context.Context, course string) ([]models.Student, error)
}

type attemptScoreReader interface {
	AttemptScores(ctx context.Context, studentIDs []string) ([]models.AttemptScore, error)
}

type submissionScoreReader interface {
	SubmissionScores(ctx context.Context, studentIDs []string) ([]models.SubmissionScore, error)
}

type distributedLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// SnapshotServiceConfig selects week numbering and cross-process locking.
type SnapshotServiceConfig struct {
	WeekStrategy string
	LockTTL      time.Duration
}

// SnapshotService writes one weekly snapshot per student per run and reads
// snapshot history back with trend annotations.
type SnapshotService struct {
	store       snapshotStore
	students    studentLister
	quizzes     attemptScoreReader
	assignments submissionScoreReader
	aggregator  *MetricAggregator
	calculator  *OGICalculator
	locker      distributedLocker
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         SnapshotServiceConfig
	now         func() time.Time

	mu sync.Mutex
}

// NewSnapshotService constructs a SnapshotService. locker may be nil.
func NewSnapshotService(store snapshotStore, students studentLister, quizzes attemptScoreReader, assignments submissionScoreReader,
	aggregator *MetricAggregator, calculator *OGICalculator, locker distributedLocker, cache *CacheService, metrics *MetricsService,
	logger *zap.Logger, cfg SnapshotServiceConfig) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if aggregator == nil {
		aggregator = NewMetricAggregator(DefaultModuleCatalog())
	}
	if calculator == nil {
		calculator, _ = NewOGICalculator(DefaultOGIWeights())
	}
	if cfg.WeekStrategy == "" {
		cfg.WeekStrategy = config.WeekStrategySequence
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &SnapshotService{
		store:       store,
		students:    students,
		quizzes:     quizzes,
		assignments: assignments,
		aggregator:  aggregator,
		calculator:  calculator,
		locker:      locker,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Generate snapshots every student under one new week number. Runs are
// serialized in-process, and across processes when a locker is configured.
// Snapshots written before a failure are kept.
func (s *SnapshotService) Generate(ctx context.Context) (*models.SnapshotGenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, snapshotLockKey, s.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, repository.ErrLockHeld) {
				return nil, appErrors.ErrSnapshotInProgress
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire snapshot lock")
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				s.logger.Warn("release snapshot lock", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	students, err := s.students.ListAll(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	attempts, err := s.quizzes.AttemptScores(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz attempts")
	}
	subs, err := s.assignments.SubmissionScores(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	maxWeek, err := s.store.MaxWeekNumber(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read latest week")
	}

	now := s.now()
	week := nextWeekNumber(s.cfg.WeekStrategy, maxWeek, now)
	window := WeekWindowFor(now)
	byStudentAttempts := groupAttempts(attempts)
	byStudentSubs := groupSubmissions(subs)

	count := 0
	for _, student := range students {
		m := s.aggregator.StudentMetrics(student, byStudentAttempts[student.ID], byStudentSubs[student.ID])
		snapshot := &models.WeeklySnapshot{
			StudentID:             student.ID,
			WeekNumber:            week,
			WeekStart:             window.Start,
			WeekEnd:               window.End,
			QuizAverage:           m.QuizAverage,
			AssignmentAverage:     m.AssignmentAverage,
			AttendancePercentage:  m.AttendancePercentage,
			CompletionRate:        m.CompletionRate,
			SubmissionConsistency: m.SubmissionConsistency,
			OGI:                   s.calculator.Compute(m),
			CreatedAt:             now.UTC(),
		}
		if err := s.store.Insert(ctx, snapshot); err != nil {
			s.logger.Error("snapshot generation aborted", zap.Int("week", week), zap.Int("written", count), zap.Error(err))
			s.metrics.ObserveSnapshotRun(count, time.Since(start))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store snapshot")
		}
		count++
	}
	s.metrics.ObserveSnapshotRun(count, time.Since(start))
	s.cache.InvalidateAnalytics(ctx)

	s.logger.Info("weekly snapshots generated", zap.Int("week", week), zap.Int("count", count))
	return &models.SnapshotGenerationResult{
		Message:    fmt.Sprintf("%d weekly snapshots generated for week %d", count, week),
		Count:      count,
		WeekNumber: week,
	}, nil
}

// History returns a student's snapshots in week order with change and trend.
func (s *SnapshotService) History(ctx context.Context, studentID string) ([]models.SnapshotWithTrend, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	snapshots, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load snapshots")
	}
	return AnnotateTrends(snapshots), nil
}
