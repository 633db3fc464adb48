package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/pkg/export"
	"github.com/noah-isme/academic-portal-api/pkg/storage"
)

type studentReporter interface {
	Report(ctx context.Context, id string) (*models.StudentReport, error)
}

type attendanceSheetLister interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Attendance, error)
}

type batchTallyReader interface {
	TallyByBatch(ctx context.Context) ([]models.AttendanceTally, error)
}

type leaderboardReader interface {
	Get(ctx context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportSources groups the readers datasets are built from.
type ExportSources struct {
	Students    studentReporter
	Attendance  attendanceSheetLister
	Tallies     batchTallyReader
	Leaderboard leaderboardReader
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	sources   ExportSources
	storage   fileStorage
	renderers map[models.ReportFormat]export.Renderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the csv, pdf and txt renderers.
func NewExportService(sources ExportSources, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		sources: sources,
		storage: store,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
			models.ReportFormatTXT: export.NewTableExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Render turns a dataset into file bytes in the requested format.
func (s *ExportService) Render(format models.ReportFormat, data export.Dataset) ([]byte, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	return renderer.Render(data)
}

// Generate builds the job's dataset, stores the rendered file and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := s.Render(job.Params.Format, dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	scope := job.Params.StudentID
	if scope == "" {
		scope = job.Params.BatchID
	}
	if scope == "" {
		scope = job.Params.Course
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", job.Type, sanitizeFilename(scope), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	params := job.Params
	switch job.Type {
	case models.ReportTypeStudent:
		report, err := s.sources.Students.Report(ctx, params.StudentID)
		if err != nil {
			return export.Dataset{}, err
		}
		return StudentReportDataset(report), nil
	case models.ReportTypeAttendance:
		if params.BatchID == "" {
			tallies, err := s.sources.Tallies.TallyByBatch(ctx)
			if err != nil {
				return export.Dataset{}, err
			}
			return batchAttendanceDataset(tallies), nil
		}
		sheets, err := s.sources.Attendance.ListByBatch(ctx, params.BatchID)
		if err != nil {
			return export.Dataset{}, err
		}
		return attendanceSheetDataset(params.BatchID, sheets), nil
	case models.ReportTypeLeaderboard:
		entries, _, err := s.sources.Leaderboard.Get(ctx, models.LeaderboardFilter{Course: params.Course, BatchID: params.BatchID, SortBy: params.SortBy})
		if err != nil {
			return export.Dataset{}, err
		}
		return LeaderboardDataset(entries), nil
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

// StudentReportDataset flattens a student report into one row per weekly snapshot.
func StudentReportDataset(report *models.StudentReport) export.Dataset {
	headers := []string{"Week", "Week Start", "Quiz Avg", "Assignment Avg", "Attendance %", "Completion %", "Consistency %", "OGI"}
	rows := make([]map[string]string, 0, len(report.WeeklySnapshots))
	for _, snap := range report.WeeklySnapshots {
		rows = append(rows, map[string]string{
			"Week":           strconv.Itoa(snap.WeekNumber),
			"Week Start":     snap.WeekStart.UTC().Format("2006-01-02"),
			"Quiz Avg":       formatFloat(snap.QuizAverage),
			"Assignment Avg": formatFloat(snap.AssignmentAverage),
			"Attendance %":   formatFloat(snap.AttendancePercentage),
			"Completion %":   formatFloat(snap.CompletionRate),
			"Consistency %":  formatFloat(snap.SubmissionConsistency),
			"OGI":            formatFloat(snap.OGI),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Student Report: %s (%s)", report.Student.Name, report.Student.EnrollmentID),
		Headers: headers,
		Rows:    rows,
	}
}

// LeaderboardDataset renders ranked entries.
func LeaderboardDataset(entries []models.LeaderboardEntry) export.Dataset {
	headers := []string{"Rank", "Name", "Enrollment ID", "Course", "Batch", "OGI", "Attendance %", "Assignment", "Quiz", "Growth"}
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Rank":          strconv.Itoa(e.Rank),
			"Name":          e.Name,
			"Enrollment ID": e.EnrollmentID,
			"Course":        e.Course,
			"Batch":         e.Batch,
			"OGI":           formatFloat(e.OGI),
			"Attendance %":  formatFloat(e.AttendancePercentage),
			"Assignment":    formatFloat(e.AssignmentScore),
			"Quiz":          formatFloat(e.QuizScore),
			"Growth":        string(e.GrowthClassification),
		})
	}
	return export.Dataset{Title: "Leaderboard", Headers: headers, Rows: rows}
}

func attendanceSheetDataset(batchID string, sheets []models.Attendance) export.Dataset {
	headers := []string{"Date", "Student", "Enrollment ID", "Status", "Remark"}
	var rows []map[string]string
	for _, sheet := range sheets {
		for _, rec := range sheet.Records {
			rows = append(rows, map[string]string{
				"Date":          sheet.Date.UTC().Format("2006-01-02"),
				"Student":       rec.StudentName,
				"Enrollment ID": rec.EnrollmentID,
				"Status":        string(rec.Status),
				"Remark":        sheet.Remark,
			})
		}
	}
	return export.Dataset{Title: "Attendance " + batchID, Headers: headers, Rows: rows}
}

func batchAttendanceDataset(tallies []models.AttendanceTally) export.Dataset {
	headers := []string{"Batch", "Present", "Absent", "Late", "Attendance %"}
	rows := make([]map[string]string, 0, len(tallies))
	for _, t := range tallies {
		rows = append(rows, map[string]string{
			"Batch":        t.Label,
			"Present":      strconv.Itoa(t.Present),
			"Absent":       strconv.Itoa(t.Absent),
			"Late":         strconv.Itoa(t.Late),
			"Attendance %": formatFloat(AttendanceRate(t.Present, t.Total())),
		})
	}
	return export.Dataset{Title: "Attendance by Batch", Headers: headers, Rows: rows}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
