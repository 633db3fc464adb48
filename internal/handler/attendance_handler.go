package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type attendanceService interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Attendance, error)
	Submit(ctx context.Context, req service.SubmitAttendanceRequest) (*models.Attendance, error)
	Edit(ctx context.Context, id string, req service.EditAttendanceRequest) (*models.Attendance, error)
}

// AttendanceHandler serves batch attendance sheets.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary Attendance sheets of a batch
// @Tags Attendance
// @Produce json
// @Param batchId query string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	batchID := c.Query("batchId")
	if batchID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "batchId required"))
		return
	}
	sheets, err := h.attendance.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, nil)
}

// Submit godoc
// @Summary Submit attendance sheet
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SubmitAttendanceRequest true "Sheet payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req service.SubmitAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.attendance.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// Edit godoc
// @Summary Edit attendance sheet inside the edit window
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body service.EditAttendanceRequest true "Fields to replace"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Edit(c *gin.Context) {
	var req service.EditAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.attendance.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
