package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type supportService interface {
	List(ctx context.Context, filter models.SupportFilter) ([]models.SupportRequest, error)
	Create(ctx context.Context, req service.CreateSupportRequest) (*models.SupportRequest, error)
	Reply(ctx context.Context, id string, req service.SupportReplyRequest) (*models.SupportRequest, error)
	Resolve(ctx context.Context, id string) (*models.SupportRequest, error)
	ScheduleBackup(ctx context.Context, id string, date time.Time) (*models.SupportRequest, error)
}

// BackupClassRequest books a make-up session.
type BackupClassRequest struct {
	Date time.Time `json:"date"`
}

// SupportHandler serves the student help inbox.
type SupportHandler struct {
	support supportService
}

// NewSupportHandler constructs SupportHandler.
func NewSupportHandler(support supportService) *SupportHandler {
	return &SupportHandler{support: support}
}

// List godoc
// @Summary List support requests
// @Tags Support
// @Produce json
// @Param course query string false "Course"
// @Param status query string false "Pending or Resolved"
// @Success 200 {object} response.Envelope
// @Router /support [get]
func (h *SupportHandler) List(c *gin.Context) {
	filter := models.SupportFilter{Course: c.Query("course"), Status: c.Query("status")}
	requests, err := h.support.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Create godoc
// @Summary Open support request
// @Tags Support
// @Accept json
// @Produce json
// @Param payload body service.CreateSupportRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /support [post]
func (h *SupportHandler) Create(c *gin.Context) {
	var req service.CreateSupportRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.support.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Reply godoc
// @Summary Reply to support request
// @Tags Support
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.SupportReplyRequest true "Reply payload"
// @Success 200 {object} response.Envelope
// @Router /support/{id}/reply [post]
func (h *SupportHandler) Reply(c *gin.Context) {
	var req service.SupportReplyRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.support.Reply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Resolve godoc
// @Summary Resolve support request
// @Tags Support
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /support/{id}/resolve [post]
func (h *SupportHandler) Resolve(c *gin.Context) {
	updated, err := h.support.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// ScheduleBackup godoc
// @Summary Schedule a backup class
// @Tags Support
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body BackupClassRequest true "Class date"
// @Success 200 {object} response.Envelope
// @Router /support/{id}/backup-class [post]
func (h *SupportHandler) ScheduleBackup(c *gin.Context) {
	var req BackupClassRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.support.ScheduleBackup(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
