package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

const noBatchLabel = "N/A"

type batchNameReader interface {
	batchFinder
	FirstBatchNames(ctx context.Context) (map[string]string, error)
}

type snapshotGenerator interface {
	Generate(ctx context.Context) (*models.SnapshotGenerationResult, error)
}

// LeaderboardService ranks students by their latest growth data.
type LeaderboardService struct {
	students    studentLister
	batches     batchNameReader
	quizzes     attemptScoreReader
	assignments submissionScoreReader
	snapshots   snapshotStore
	generator   snapshotGenerator
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewLeaderboardService constructs a LeaderboardService.
func NewLeaderboardService(students studentLister, batches batchNameReader, quizzes attemptScoreReader, assignments submissionScoreReader,
	snapshots snapshotStore, generator snapshotGenerator, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		students:    students,
		batches:     batches,
		quizzes:     quizzes,
		assignments: assignments,
		snapshots:   snapshots,
		generator:   generator,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Get returns ranked entries. The boolean reports a cache hit.
func (s *LeaderboardService) Get(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, bool, error) {
	sortBy := NormalizeSortKey(filter.SortBy)
	cacheKey := makeAnalyticsCacheKey("leaderboard", filter.Course, filter.BatchID, sortBy)
	var cached []models.LeaderboardEntry
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	entries, err := s.build(ctx, filter.Course, filter.BatchID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build leaderboard")
	}
	s.metrics.ObserveDBQuery("leaderboard", time.Since(start))

	ranked := RankEntries(entries, sortBy)
	_ = s.cache.Set(ctx, cacheKey, ranked, 0)
	return ranked, false, nil
}

func (s *LeaderboardService) build(ctx context.Context, course, batchID string) ([]models.LeaderboardEntry, error) {
	students, err := filteredStudents(ctx, s.students, s.batches, course, batchID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return []models.LeaderboardEntry{}, nil
	}
	ids := studentIDs(students)
	names, err := s.batches.FirstBatchNames(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.snapshots.RecentByStudents(ctx, ids, growthHistoryWindow)
	if err != nil {
		return nil, err
	}
	attempts, err := s.quizzes.AttemptScores(ctx, ids)
	if err != nil {
		return nil, err
	}
	subs, err := s.assignments.SubmissionScores(ctx, ids)
	if err != nil {
		return nil, err
	}
	byAttempts := groupAttempts(attempts)
	bySubs := groupSubmissions(subs)

	entries := make([]models.LeaderboardEntry, 0, len(students))
	for _, student := range students {
		batch, ok := names[student.ID]
		if !ok {
			batch = noBatchLabel
		}
		snaps := history[student.ID]
		entries = append(entries, models.LeaderboardEntry{
			StudentID:            student.ID,
			Name:                 student.Name,
			EnrollmentID:         student.EnrollmentID,
			Course:               student.Course,
			Batch:                batch,
			OGI:                  round2(currentOGI(snaps)),
			AttendancePercentage: student.AttendancePercentage,
			AssignmentScore:      AssignmentAverage(bySubs[student.ID]),
			QuizScore:            QuizAverage(byAttempts[student.ID]),
			GrowthClassification: ClassifyGrowth(ogiHistory(snaps)),
		})
	}
	return entries, nil
}

// Update generates a new snapshot week and returns the fresh OGI ranking.
func (s *LeaderboardService) Update(ctx context.Context) (*models.LeaderboardUpdate, error) {
	result, err := s.generator.Generate(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.build(ctx, "", "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build leaderboard")
	}
	return &models.LeaderboardUpdate{
		Message:     fmt.Sprintf("Leaderboard updated. %d snapshots created for week %d.", result.Count, result.WeekNumber),
		Count:       result.Count,
		WeekNumber:  result.WeekNumber,
		Leaderboard: RankEntries(entries, SortByOGI),
	}, nil
}
