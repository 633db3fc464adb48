package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/export"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type analyticsService interface {
	Class(ctx context.Context) (*models.ClassAnalytics, bool, error)
	Monitoring(ctx context.Context, filter models.MonitoringFilter) ([]models.StudentMonitoring, bool, error)
	SystemMetrics() models.AnalyticsSystemMetrics
}

type snapshotService interface {
	Generate(ctx context.Context) (*models.SnapshotGenerationResult, error)
	History(ctx context.Context, studentID string) ([]models.SnapshotWithTrend, error)
}

type studentReporter interface {
	Report(ctx context.Context, id string) (*models.StudentReport, error)
}

type datasetRenderer interface {
	Render(format models.ReportFormat, data export.Dataset) ([]byte, error)
}

var downloadContentTypes = map[models.ReportFormat]string{
	models.ReportFormatCSV: "text/csv",
	models.ReportFormatPDF: "application/pdf",
	models.ReportFormatTXT: "text/plain; charset=utf-8",
}

// AnalyticsHandler exposes growth analytics and snapshot endpoints.
type AnalyticsHandler struct {
	analytics analyticsService
	snapshots snapshotService
	students  studentReporter
	renderer  datasetRenderer
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService, snapshots snapshotService, students studentReporter, renderer datasetRenderer) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, snapshots: snapshots, students: students, renderer: renderer}
}

// Class godoc
// @Summary Class analytics
// @Description Class OGI, per-batch attendance, weekly activity and a 30 day attendance heatmap
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/class [get]
func (h *AnalyticsHandler) Class(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	data, hit, err := h.analytics.Class(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	cachedJSON(c, data, hit, start)
}

// Students godoc
// @Summary Student growth monitoring
// @Tags Analytics
// @Produce json
// @Param course query string false "Course"
// @Param batch query string false "Batch ID"
// @Param growth query string false "Excellent, Good, Average or Needs Attention"
// @Success 200 {object} response.Envelope
// @Router /analytics/students [get]
func (h *AnalyticsHandler) Students(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filter := models.MonitoringFilter{
		Course:  c.Query("course"),
		BatchID: c.Query("batch"),
		Growth:  c.Query("growth"),
	}
	start := time.Now()
	data, hit, err := h.analytics.Monitoring(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	cachedJSON(c, data, hit, start)
}

// Snapshots godoc
// @Summary Weekly snapshot history with trend
// @Tags Analytics
// @Produce json
// @Param studentId query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/snapshots [get]
func (h *AnalyticsHandler) Snapshots(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	history, err := h.snapshots.History(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// GenerateSnapshots godoc
// @Summary Generate weekly snapshots
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /analytics/generate-snapshots [post]
func (h *AnalyticsHandler) GenerateSnapshots(c *gin.Context) {
	result, err := h.snapshots.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, result.Message, result)
}

// Download godoc
// @Summary Download a student report
// @Tags Analytics
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /analytics/download/{studentId} [get]
func (h *AnalyticsHandler) Download(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != string(models.ReportFormatCSV) && format != string(models.ReportFormatPDF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
		return
	}

	report, err := h.students.Report(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if format == "json" {
		response.JSON(c, http.StatusOK, report, nil)
		return
	}

	reportFormat := models.ReportFormat(format)
	body, err := h.renderer.Render(reportFormat, service.StudentReportDataset(report))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report"))
		return
	}
	filename := fmt.Sprintf("student_report_%s.%s", report.Student.EnrollmentID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, downloadContentTypes[reportFormat], body)
}

// System godoc
// @Summary Analytics instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.analytics.SystemMetrics(), nil)
}
