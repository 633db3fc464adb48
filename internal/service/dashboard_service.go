package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

const upcomingDeadlineWindow = 7 * 24 * time.Hour

type studentStatsReader interface {
	Count(ctx context.Context) (int, error)
	AverageAttendance(ctx context.Context) (float64, error)
}

type batchStatusCounter interface {
	CountByStatus(ctx context.Context, status models.BatchStatus) (int, error)
}

type deadlineReader interface {
	CountPending(ctx context.Context) (int, error)
	UpcomingDeadlines(ctx context.Context, from, to time.Time) ([]models.UpcomingDeadline, error)
}

// DashboardService composes the landing page summary.
type DashboardService struct {
	students    studentStatsReader
	batches     batchStatusCounter
	assignments deadlineReader
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(students studentStatsReader, batches batchStatusCounter, assignments deadlineReader, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, batches: batches, assignments: assignments, logger: logger, now: time.Now}
}

// Stats returns the dashboard counters and the deadlines due within a week.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	wrap := func(err error, msg string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	total, err := s.students.Count(ctx)
	if err != nil {
		return nil, wrap(err, "failed to count students")
	}
	active, err := s.batches.CountByStatus(ctx, models.BatchStatusOngoing)
	if err != nil {
		return nil, wrap(err, "failed to count active batches")
	}
	pending, err := s.assignments.CountPending(ctx)
	if err != nil {
		return nil, wrap(err, "failed to count pending submissions")
	}
	now := s.now()
	deadlines, err := s.assignments.UpcomingDeadlines(ctx, now, now.Add(upcomingDeadlineWindow))
	if err != nil {
		return nil, wrap(err, "failed to load upcoming deadlines")
	}
	if deadlines == nil {
		deadlines = []models.UpcomingDeadline{}
	}
	avg, err := s.students.AverageAttendance(ctx)
	if err != nil {
		return nil, wrap(err, "failed to average attendance")
	}

	return &models.DashboardStats{
		TotalStudents:           total,
		ActiveCourses:           active,
		PendingAssignments:      pending,
		UpcomingDeadlines:       deadlines,
		AverageClassPerformance: int(roundHalfUp(avg)),
	}, nil
}
