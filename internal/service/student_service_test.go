package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type fakeStudentActivity struct {
	subs        []models.StudentSubmission
	attempts    []models.StudentQuizAttempt
	history     []models.StudentAttendanceEntry
	tallies     []models.AttendanceTally
	snapshots   []models.WeeklySnapshot
	assignments int
	quizzes     int
	attempted   int
}

type fakeStudentSubmissions struct{ *fakeStudentActivity }

func (f fakeStudentSubmissions) ListByStudent(context.Context, string) ([]models.StudentSubmission, error) {
	return f.subs, nil
}

func (f fakeStudentSubmissions) Count(context.Context) (int, error) { return f.assignments, nil }

type fakeStudentAttempts struct{ *fakeStudentActivity }

func (f fakeStudentAttempts) ListByStudent(context.Context, string) ([]models.StudentQuizAttempt, error) {
	return f.attempts, nil
}

func (f fakeStudentAttempts) CountAttemptedQuizzes(context.Context, string) (int, error) {
	return f.attempted, nil
}

func (f fakeStudentAttempts) Count(context.Context) (int, error) { return f.quizzes, nil }

func (f *fakeStudentActivity) HistoryByStudent(context.Context, string) ([]models.StudentAttendanceEntry, error) {
	return f.history, nil
}

func (f *fakeStudentActivity) TallyByStudent(context.Context) ([]models.AttendanceTally, error) {
	return f.tallies, nil
}

func (f *fakeStudentActivity) ListByStudent(context.Context, string) ([]models.WeeklySnapshot, error) {
	return f.snapshots, nil
}

func newStudentServiceForTest() (*StudentService, *fakeStudentRepo, *fakeStudentActivity) {
	repo, _ := snapshotFixture()
	activity := &fakeStudentActivity{}
	svc := NewStudentService(repo, fakeStudentSubmissions{activity}, fakeStudentAttempts{activity}, activity, activity, nil, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, activity
}

func TestStudentServiceListDefaults(t *testing.T) {
	svc, _, _ := newStudentServiceForTest()

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestStudentServiceGetProgress(t *testing.T) {
	svc, _, activity := newStudentServiceForTest()
	activity.subs = []models.StudentSubmission{
		{AssignmentID: "a1", Status: models.SubmissionEvaluated},
		{AssignmentID: "a2", Status: models.SubmissionLateSubmitted},
		{AssignmentID: "a3", Status: models.SubmissionNotSubmitted},
	}
	activity.assignments = 3
	activity.quizzes = 3
	activity.attempted = 1

	detail, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", detail.Student.ID)
	assert.Equal(t, 50, detail.ProgressPercentage)
	assert.NotNil(t, detail.AttendanceRecords)
	assert.NotNil(t, detail.QuizAttempts)
}

func TestStudentServiceGetNoWork(t *testing.T) {
	svc, _, _ := newStudentServiceForTest()

	detail, err := svc.Get(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, detail.ProgressPercentage)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc, _, _ := newStudentServiceForTest()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceCreate(t *testing.T) {
	svc, repo, _ := newStudentServiceForTest()

	student, err := svc.Create(context.Background(), StudentRequest{
		Name:         " Kavya Nair ",
		EnrollmentID: "ENR-300",
		Email:        "kavya@academy.test",
		Course:       "Web Development",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-new", student.ID)
	assert.Equal(t, "Kavya Nair", student.Name)
	assert.Equal(t, models.StudentStatusOngoing, student.Status)
	assert.NotNil(t, student.Modules)
	assert.Len(t, repo.students, 3)
}

func TestStudentServiceCreateDuplicateEnrollment(t *testing.T) {
	svc, repo, _ := newStudentServiceForTest()
	existing := repo.students[0].EnrollmentID

	_, err := svc.Create(context.Background(), StudentRequest{
		Name:         "Duplicate",
		EnrollmentID: existing,
		Email:        "dup@academy.test",
		Course:       "Python",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestStudentServiceUpdateKeepsOwnEnrollment(t *testing.T) {
	svc, repo, _ := newStudentServiceForTest()
	current := repo.students[0]

	updated, err := svc.Update(context.Background(), current.ID, StudentRequest{
		Name:         current.Name,
		EnrollmentID: current.EnrollmentID,
		Email:        "new@academy.test",
		Course:       current.Course,
		Status:       models.StudentStatusCompleted,
		LinkedIn:     "https://www.linkedin.com/in/asha",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@academy.test", updated.Email)
	assert.Equal(t, models.StudentStatusCompleted, updated.Status)
	assert.Equal(t, "https://www.linkedin.com/in/asha", updated.LinkedIn)
}

func TestStudentServiceRejectsUnknownStatus(t *testing.T) {
	svc, repo, _ := newStudentServiceForTest()
	current := repo.students[0]

	_, err := svc.Update(context.Background(), current.ID, StudentRequest{
		Name:         current.Name,
		EnrollmentID: current.EnrollmentID,
		Email:        "asha@academy.test",
		Course:       current.Course,
		Status:       "Graduated",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc, _, _ := newStudentServiceForTest()

	_, err := svc.Create(context.Background(), StudentRequest{Name: "No Email", EnrollmentID: "X", Course: "DSA"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceReport(t *testing.T) {
	svc, _, activity := newStudentServiceForTest()
	activity.snapshots = []models.WeeklySnapshot{{StudentID: "s1", WeekNumber: 1, OGI: 70}}

	report, err := svc.Report(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, report.WeeklySnapshots, 1)
	assert.NotNil(t, report.AttendanceRecords)
	assert.Equal(t, fixedNow, report.GeneratedAt)
}

func TestStudentServiceSyncAttendance(t *testing.T) {
	svc, repo, activity := newStudentServiceForTest()
	activity.tallies = []models.AttendanceTally{{Key: "s1", Present: 3, Late: 1}}

	updated, err := svc.SyncAttendance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 75.0, repo.attendance["s1"])
	assert.Equal(t, 0.0, repo.attendance["s2"])
}

func TestStudentWritesDropCachedLeaderboard(t *testing.T) {
	students, scores, store, batches := analyticsFixture()
	cache, cacheRepo := newTestCache()
	leaderboard := NewLeaderboardService(students, batches, scores, scores, store, &fakeGenerator{}, cache, nil, nil)
	activity := &fakeStudentActivity{}
	svc := NewStudentService(students, fakeStudentSubmissions{activity}, fakeStudentAttempts{activity}, activity, activity, cache, nil, nil)
	ctx := context.Background()

	_, hit, err := leaderboard.Get(ctx, models.LeaderboardFilter{})
	require.NoError(t, err)
	require.False(t, hit)

	_, err = svc.Update(ctx, "s2", StudentRequest{
		Name:         "Renamed Ravi",
		EnrollmentID: "ENR-002",
		Email:        "ravi@example.com",
		Course:       "Python",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics*"}, cacheRepo.invalidated)

	entries, hit, err := leaderboard.Get(ctx, models.LeaderboardFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	var renamed *models.LeaderboardEntry
	for i := range entries {
		if entries[i].StudentID == "s2" {
			renamed = &entries[i]
		}
	}
	require.NotNil(t, renamed)
	assert.Equal(t, "Renamed Ravi", renamed.Name)
	assert.Equal(t, "Python", renamed.Course)
}

func TestStudentCreateAndSyncInvalidateAnalytics(t *testing.T) {
	repo, _ := snapshotFixture()
	cache, cacheRepo := newTestCache()
	activity := &fakeStudentActivity{}
	svc := NewStudentService(repo, fakeStudentSubmissions{activity}, fakeStudentAttempts{activity}, activity, activity, cache, nil, nil)

	_, err := svc.Create(context.Background(), StudentRequest{
		Name:         "Meera",
		EnrollmentID: "ENR-003",
		Email:        "meera@example.com",
		Course:       "DSA",
	})
	require.NoError(t, err)
	_, err = svc.SyncAttendance(context.Background())
	require.NoError(t, err)

	assert.Len(t, cacheRepo.invalidated, 2)
}
