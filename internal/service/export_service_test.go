package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/pkg/storage"
)

type exportSourcesStub struct {
	sheets        []models.Attendance
	tallies       []models.AttendanceTally
	entries       []models.LeaderboardEntry
	leaderFilter  models.LeaderboardFilter
	reportStudent string
}

func (s *exportSourcesStub) Report(_ context.Context, id string) (*models.StudentReport, error) {
	s.reportStudent = id
	return &models.StudentReport{
		Student: models.Student{ID: id, Name: "Asha", EnrollmentID: "ENR-001"},
		WeeklySnapshots: []models.WeeklySnapshot{
			{WeekNumber: 1, WeekStart: time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), QuizAverage: 80, OGI: 72.5},
		},
	}, nil
}

func (s *exportSourcesStub) ListByBatch(context.Context, string) ([]models.Attendance, error) {
	return s.sheets, nil
}

func (s *exportSourcesStub) TallyByBatch(context.Context) ([]models.AttendanceTally, error) {
	return s.tallies, nil
}

func (s *exportSourcesStub) Get(_ context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, bool, error) {
	s.leaderFilter = filter
	return s.entries, false, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *exportSourcesStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	stub := &exportSourcesStub{
		tallies: []models.AttendanceTally{{Key: "b1", Label: "Morning", Present: 3, Absent: 1}},
		entries: []models.LeaderboardEntry{{Rank: 1, StudentID: "s1", Name: "Asha", Batch: "Morning", OGI: 81.25, GrowthClassification: models.GrowthExcellent}},
		sheets: []models.Attendance{{
			ID:      "att-1",
			BatchID: "b1",
			Date:    fixedNow,
			Remark:  "Lab",
			Records: []models.AttendanceRecord{{StudentID: "s1", StudentName: "Asha", EnrollmentID: "ENR-001", Status: models.AttendancePresent}},
		}},
	}
	sources := ExportSources{Students: stub, Attendance: stub, Tallies: stub, Leaderboard: stub}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(sources, store, signer, ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, stub
}

func readExport(t *testing.T, svc *ExportService, relPath string) string {
	t.Helper()
	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	return string(body)
}

func TestExportServiceGenerateLeaderboardCSV(t *testing.T) {
	svc, stub := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeLeaderboard,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, Course: "Python", SortBy: "quizScore"},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "leaderboard_Python_20240313_100000.csv", result.RelativePath)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.Equal(t, "quizScore", stub.leaderFilter.SortBy)

	body := readExport(t, svc, result.RelativePath)
	assert.Contains(t, body, "Rank,Name")
	assert.Contains(t, body, "Asha")
	assert.Contains(t, body, "81.25")

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceAttendanceScopes(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	overall, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeAttendance,
		Params: models.ReportJobParams{Format: models.ReportFormatTXT},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(overall.RelativePath, "attendance_all_"))
	body := readExport(t, svc, overall.RelativePath)
	assert.Contains(t, body, "Morning")
	assert.Contains(t, body, "75.00")

	batch, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeAttendance,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, BatchID: "b1"},
	})
	require.NoError(t, err)
	body = readExport(t, svc, batch.RelativePath)
	assert.Contains(t, body, "2024-03-13,Asha,ENR-001,Present,Lab")
}

func TestExportServiceStudentReportPDF(t *testing.T) {
	svc, stub := newExportServiceForTest(t)

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportTypeStudent,
		Params: models.ReportJobParams{Format: models.ReportFormatPDF, StudentID: "s1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", stub.reportStudent)
	body := readExport(t, svc, result.RelativePath)
	assert.True(t, bytes.HasPrefix([]byte(body), []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-5",
		Type:   models.ReportTypeLeaderboard,
		Params: models.ReportJobParams{Format: "xlsx"},
	})
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), nil)
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "all", sanitizeFilename(""))
	assert.Equal(t, "Web_Development", sanitizeFilename("Web Development"))
	assert.Equal(t, "a-b-c", sanitizeFilename("a/b:c"))
}
