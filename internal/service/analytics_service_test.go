package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

type fakeAttendanceTallies struct {
	batch   []models.AttendanceTally
	day     []models.AttendanceTally
	dayFrom time.Time
}

func (f *fakeAttendanceTallies) TallyByBatch(context.Context) ([]models.AttendanceTally, error) {
	return f.batch, nil
}

func (f *fakeAttendanceTallies) TallyByDay(_ context.Context, from time.Time) ([]models.AttendanceTally, error) {
	f.dayFrom = from
	return f.day, nil
}

func analyticsFixture() (*fakeStudentRepo, *fakeScores, *fakeSnapshotStore, *fakeBatchRepo) {
	students, scores := snapshotFixture()
	store := &fakeSnapshotStore{snapshots: []models.WeeklySnapshot{
		{StudentID: "s1", WeekNumber: 1, OGI: 70, QuizAverage: 80, AssignmentAverage: 90},
		{StudentID: "s2", WeekNumber: 1, OGI: 40, QuizAverage: 30, AssignmentAverage: 24},
		{StudentID: "s1", WeekNumber: 2, OGI: 80, QuizAverage: 85, AssignmentAverage: 90},
		{StudentID: "s2", WeekNumber: 2, OGI: 45},
	}}
	batches := &fakeBatchRepo{
		batches: []models.Batch{{ID: "b1", Name: "Morning", StudentIDs: []string{"s1"}}},
		names:   map[string]string{"s1": "Morning"},
	}
	return students, scores, store, batches
}

func newAnalyticsServiceForTest() (*AnalyticsService, *fakeStudentRepo, *fakeAttendanceTallies) {
	students, scores, store, batches := analyticsFixture()
	tallies := &fakeAttendanceTallies{
		batch: []models.AttendanceTally{
			{Key: "b1", Label: "Morning", Present: 3, Absent: 1},
			{Key: "b2", Label: "Evening"},
		},
		day: []models.AttendanceTally{{Key: "2024-03-13", Present: 2, Absent: 1, Late: 1}},
	}
	cache, _ := newTestCache()
	svc := NewAnalyticsService(students, scores, scores, tallies, batches, store, nil, cache, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, students, tallies
}

func TestAnalyticsServiceClass(t *testing.T) {
	svc, _, tallies := newAnalyticsServiceForTest()

	result, hit, err := svc.Class(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, 80, result.AverageQuizScore)
	assert.Equal(t, 90, result.AverageAssignmentScore)
	assert.Equal(t, 50, result.SubmissionConsistency)
	assert.Equal(t, 60, result.ModuleCompletionRate)
	assert.Equal(t, 63, result.OverallClassOGI)

	assert.Equal(t, []models.BatchAttendance{
		{BatchName: "Morning", AttendancePercentage: 75},
		{BatchName: "Evening", AttendancePercentage: 0},
	}, result.ModuleWiseAttendance)

	assert.Equal(t, []models.WeeklyActivity{
		{Week: "Week 1", QuizAttempts: 11, AssignmentSubmissions: 11},
		{Week: "Week 2", QuizAttempts: 9, AssignmentSubmissions: 9},
	}, result.WeeklyActivityTrend)

	require.Len(t, result.AttendanceHeatmap, 30)
	assert.Equal(t, "2024-02-13", result.AttendanceHeatmap[0].Date)
	assert.Equal(t, -1, result.AttendanceHeatmap[0].Percentage)
	last := result.AttendanceHeatmap[29]
	assert.Equal(t, "2024-03-13", last.Date)
	assert.Equal(t, 4, last.Total)
	assert.Equal(t, 50, last.Percentage)
	assert.Equal(t, time.Date(2024, time.February, 13, 0, 0, 0, 0, time.UTC), tallies.dayFrom)
}

func TestAnalyticsServiceClassWithoutSnapshots(t *testing.T) {
	students, scores := snapshotFixture()
	svc := NewAnalyticsService(students, scores, scores, &fakeAttendanceTallies{}, &fakeBatchRepo{}, &fakeSnapshotStore{}, nil, nil, nil, nil)

	result, _, err := svc.Class(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.OverallClassOGI)
	assert.Equal(t, []models.WeeklyActivity{{Week: "Week 1"}}, result.WeeklyActivityTrend)
}

func TestAnalyticsServiceClassCaching(t *testing.T) {
	svc, students, _ := newAnalyticsServiceForTest()
	ctx := context.Background()

	first, hit, err := svc.Class(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Class(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.OverallClassOGI, second.OverallClassOGI)
	assert.Equal(t, first.WeeklyActivityTrend, second.WeeklyActivityTrend)
	assert.Len(t, second.AttendanceHeatmap, 30)
	assert.Equal(t, 1, students.listCalls)
}

func TestAnalyticsServiceClassErrorPassthrough(t *testing.T) {
	students := &fakeStudentRepo{listAllErr: assert.AnError}
	svc := NewAnalyticsService(students, &fakeScores{}, &fakeScores{}, &fakeAttendanceTallies{}, &fakeBatchRepo{}, &fakeSnapshotStore{}, nil, nil, nil, nil)

	_, _, err := svc.Class(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAnalyticsServiceMonitoring(t *testing.T) {
	svc, _, _ := newAnalyticsServiceForTest()

	cards, _, err := svc.Monitoring(context.Background(), models.MonitoringFilter{})
	require.NoError(t, err)
	require.Len(t, cards, 2)

	asha := cards[0]
	assert.Equal(t, "s1", asha.StudentID)
	assert.Equal(t, 80.0, asha.CurrentOGI)
	assert.Equal(t, []models.OGIPoint{{Week: 1, OGI: 70}, {Week: 2, OGI: 80}}, asha.OGITrend)
	assert.Equal(t, models.GrowthExcellent, asha.GrowthClassification)
	assert.Equal(t, models.ModuleCompletion{Completed: 3, Total: 3}, asha.ModuleCompletionProgress)
	assert.Equal(t, 14, asha.WeeklyLearningHours)

	ravi := cards[1]
	assert.Equal(t, models.GrowthNeedsAttention, ravi.GrowthClassification)
	assert.Equal(t, 6, ravi.WeeklyLearningHours)
	assert.Equal(t, models.ModuleCompletion{Completed: 1, Total: 5}, ravi.ModuleCompletionProgress)
}

func TestAnalyticsServiceMonitoringFilters(t *testing.T) {
	svc, _, _ := newAnalyticsServiceForTest()
	ctx := context.Background()

	byBatch, _, err := svc.Monitoring(ctx, models.MonitoringFilter{BatchID: "b1"})
	require.NoError(t, err)
	require.Len(t, byBatch, 1)
	assert.Equal(t, "s1", byBatch[0].StudentID)

	unknownBatch, _, err := svc.Monitoring(ctx, models.MonitoringFilter{BatchID: "missing"})
	require.NoError(t, err)
	assert.Len(t, unknownBatch, 2)

	byGrowth, _, err := svc.Monitoring(ctx, models.MonitoringFilter{Growth: "Needs Attention"})
	require.NoError(t, err)
	require.Len(t, byGrowth, 1)
	assert.Equal(t, "s2", byGrowth[0].StudentID)

	partial, _, err := svc.Monitoring(ctx, models.MonitoringFilter{Growth: "Needs"})
	require.NoError(t, err)
	assert.Empty(t, partial)

	byCourse, _, err := svc.Monitoring(ctx, models.MonitoringFilter{Course: "pyth"})
	require.NoError(t, err)
	require.Len(t, byCourse, 1)
	assert.Equal(t, "s1", byCourse[0].StudentID)
}
