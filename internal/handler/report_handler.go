package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, req models.ReportRequest, actorID string) (*models.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string, actorID string, role models.TeacherRole) (*models.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes asynchronous export endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate godoc
// @Summary Queue a report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body models.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Router /reports/generate [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ReportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.reports.CreateJob(c.Request.Context(), req, claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/status/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.reports.GetStatus(c.Request.Context(), c.Param("id"), claims.TeacherID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	contentType, ok := downloadContentTypes[download.Format]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
		"Cache-Control":       "no-store",
	})
}
