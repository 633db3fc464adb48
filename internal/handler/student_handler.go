package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, req service.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error)
}

type studentAttendanceHistory interface {
	StudentHistory(ctx context.Context, studentID string) ([]models.StudentAttendanceEntry, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students   studentService
	attendance studentAttendanceHistory
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, attendance studentAttendanceHistory) *StudentHandler {
	return &StudentHandler{students: students, attendance: attendance}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param name query string false "Name contains"
// @Param enrollmentId query string false "Enrollment ID contains"
// @Param email query string false "Email contains"
// @Param course query string false "Course"
// @Param status query string false "Ongoing or Completed"
// @Param batch query string false "Batch ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Name:         strings.TrimSpace(c.Query("name")),
		EnrollmentID: strings.TrimSpace(c.Query("enrollmentId")),
		Email:        strings.TrimSpace(c.Query("email")),
		Course:       c.Query("course"),
		Status:       c.Query("status"),
		BatchID:      c.Query("batch"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "limit", 20),
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Attendance godoc
// @Summary Student attendance history
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *StudentHandler) Attendance(c *gin.Context) {
	history, err := h.attendance.StudentHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
