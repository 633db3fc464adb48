package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

const (
	activityTrendWeeks = 7
	monitoringHistory  = 8
)

type attendanceTallyReader interface {
	TallyByBatch(ctx context.Context) ([]models.AttendanceTally, error)
	TallyByDay(ctx context.Context, from time.Time) ([]models.AttendanceTally, error)
}

type batchFinder interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

// AnalyticsService builds the read-only class and student growth views.
type AnalyticsService struct {
	students    studentLister
	quizzes     attemptScoreReader
	assignments submissionScoreReader
	attendance  attendanceTallyReader
	batches     batchFinder
	snapshots   snapshotStore
	aggregator  *MetricAggregator
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(students studentLister, quizzes attemptScoreReader, assignments submissionScoreReader, attendance attendanceTallyReader,
	batches batchFinder, snapshots snapshotStore, aggregator *MetricAggregator, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if aggregator == nil {
		aggregator = NewMetricAggregator(DefaultModuleCatalog())
	}
	return &AnalyticsService{
		students:    students,
		quizzes:     quizzes,
		assignments: assignments,
		attendance:  attendance,
		batches:     batches,
		snapshots:   snapshots,
		aggregator:  aggregator,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Class returns the class-wide view. The boolean reports a cache hit.
func (s *AnalyticsService) Class(ctx context.Context) (*models.ClassAnalytics, bool, error) {
	cacheKey := makeAnalyticsCacheKey("class")
	var cached models.ClassAnalytics
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	start := time.Now()
	result, err := s.buildClass(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build class analytics")
	}
	s.metrics.ObserveDBQuery("analytics_class", time.Since(start))
	_ = s.cache.Set(ctx, cacheKey, result, 0)
	return result, false, nil
}

func (s *AnalyticsService) buildClass(ctx context.Context) (*models.ClassAnalytics, error) {
	students, err := s.students.ListAll(ctx, "")
	if err != nil {
		return nil, err
	}
	attempts, err := s.quizzes.AttemptScores(ctx, nil)
	if err != nil {
		return nil, err
	}
	subs, err := s.assignments.SubmissionScores(ctx, nil)
	if err != nil {
		return nil, err
	}
	class := s.aggregator.ClassMetrics(students, attempts, subs)

	latest, err := s.snapshots.MaxWeekNumber(ctx)
	if err != nil {
		return nil, err
	}
	from, to := activityWeeks(latest)
	recent, err := s.snapshots.ListByWeekRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	batchTallies, err := s.attendance.TallyByBatch(ctx)
	if err != nil {
		return nil, err
	}
	days := trailingDays(s.now(), heatmapDays)
	dayTallies, err := s.attendance.TallyByDay(ctx, days[0])
	if err != nil {
		return nil, err
	}

	return &models.ClassAnalytics{
		AverageQuizScore:       int(class.QuizAverage),
		AverageAssignmentScore: int(class.AssignmentAverage),
		SubmissionConsistency:  int(class.SubmissionConsistency),
		ModuleCompletionRate:   int(class.CompletionRate),
		OverallClassOGI:        latestWeekOGI(recent, latest),
		ModuleWiseAttendance:   batchAttendance(batchTallies),
		WeeklyActivityTrend:    weeklyActivity(recent, from, to),
		AttendanceHeatmap:      attendanceHeatmap(days, dayTallies),
	}, nil
}

// activityWeeks returns the inclusive week range of the activity trend.
func activityWeeks(latest int) (int, int) {
	from := latest - (activityTrendWeeks - 1)
	if from < 1 {
		from = 1
	}
	to := latest
	if to < 1 {
		to = 1
	}
	return from, to
}

func latestWeekOGI(snapshots []models.WeeklySnapshot, latest int) int {
	var sum float64
	var n int
	for _, snap := range snapshots {
		if snap.WeekNumber == latest {
			sum += snap.OGI
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(roundHalfUp(sum / float64(n)))
}

func batchAttendance(tallies []models.AttendanceTally) []models.BatchAttendance {
	out := make([]models.BatchAttendance, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, models.BatchAttendance{
			BatchName:            t.Label,
			AttendancePercentage: int(AttendanceRate(t.Present, t.Total())),
		})
	}
	return out
}

// weeklyActivity approximates activity from snapshot averages, one entry per week.
func weeklyActivity(snapshots []models.WeeklySnapshot, from, to int) []models.WeeklyActivity {
	byWeek := make(map[int]*models.WeeklyActivity, to-from+1)
	out := make([]models.WeeklyActivity, 0, to-from+1)
	for w := from; w <= to; w++ {
		out = append(out, models.WeeklyActivity{Week: fmt.Sprintf("Week %d", w)})
	}
	for i := range out {
		byWeek[from+i] = &out[i]
	}
	for _, snap := range snapshots {
		entry, ok := byWeek[snap.WeekNumber]
		if !ok {
			continue
		}
		entry.QuizAttempts += int(roundHalfUp(snap.QuizAverage / 10))
		entry.AssignmentSubmissions += int(roundHalfUp(snap.AssignmentAverage / 10))
	}
	return out
}

// attendanceHeatmap fills every day, marking days without records with -1.
func attendanceHeatmap(days []time.Time, tallies []models.AttendanceTally) []models.AttendanceHeatmapDay {
	byDay := make(map[string]models.AttendanceTally, len(tallies))
	for _, t := range tallies {
		byDay[t.Key] = t
	}
	out := make([]models.AttendanceHeatmapDay, 0, len(days))
	for _, day := range days {
		key := day.Format("2006-01-02")
		t := byDay[key]
		entry := models.AttendanceHeatmapDay{
			Date:       key,
			Present:    t.Present,
			Absent:     t.Absent,
			Late:       t.Late,
			Total:      t.Total(),
			Percentage: -1,
		}
		if entry.Total > 0 {
			entry.Percentage = int(AttendanceRate(t.Present, entry.Total))
		}
		out = append(out, entry)
	}
	return out
}

// Monitoring returns per-student growth cards.
func (s *AnalyticsService) Monitoring(ctx context.Context, filter models.MonitoringFilter) ([]models.StudentMonitoring, bool, error) {
	cacheKey := makeAnalyticsCacheKey("monitoring", filter.Course, filter.BatchID, filter.Growth)
	var cached []models.StudentMonitoring
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	students, err := filteredStudents(ctx, s.students, s.batches, filter.Course, filter.BatchID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	history, err := s.snapshots.RecentByStudents(ctx, studentIDs(students), monitoringHistory)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load snapshots")
	}
	s.metrics.ObserveDBQuery("analytics_monitoring", time.Since(start))

	catalog := s.aggregator.Catalog()
	cards := make([]models.StudentMonitoring, 0, len(students))
	for _, student := range students {
		snaps := history[student.ID]
		growth := ClassifyGrowth(ogiHistory(snaps))
		if filter.Growth != "" && string(growth) != filter.Growth {
			continue
		}
		trend := make([]models.OGIPoint, 0, len(snaps))
		for _, snap := range snaps {
			trend = append(trend, models.OGIPoint{Week: snap.WeekNumber, OGI: snap.OGI})
		}
		cards = append(cards, models.StudentMonitoring{
			StudentID:            student.ID,
			Name:                 student.Name,
			EnrollmentID:         student.EnrollmentID,
			Course:               student.Course,
			CurrentOGI:           currentOGI(snaps),
			OGITrend:             trend,
			GrowthClassification: growth,
			ModuleCompletionProgress: models.ModuleCompletion{
				Completed: len(student.Modules),
				Total:     catalog.MaxModules(student.Course),
			},
			WeeklyLearningHours:   int(roundHalfUp(student.AttendancePercentage / 100 * 5 * 3)),
			SkillAcquisitionCount: len(student.SkillsAcquired),
			LearningStreak:        student.LearningStreak,
		})
	}

	_ = s.cache.Set(ctx, cacheKey, cards, 0)
	return cards, false, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return s.metrics.Snapshot()
}

// filteredStudents narrows by course substring and batch membership. An
// unknown batch id leaves the list unfiltered.
func filteredStudents(ctx context.Context, students studentLister, batches batchFinder, course, batchID string) ([]models.Student, error) {
	list, err := students.ListAll(ctx, course)
	if err != nil {
		return nil, err
	}
	if batchID == "" || batches == nil {
		return list, nil
	}
	batch, err := batches.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return list, nil
		}
		return nil, err
	}
	members := make(map[string]struct{}, len(batch.StudentIDs))
	for _, id := range batch.StudentIDs {
		members[id] = struct{}{}
	}
	out := make([]models.Student, 0, len(list))
	for _, student := range list {
		if _, ok := members[student.ID]; ok {
			out = append(out, student)
		}
	}
	return out, nil
}
