package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req service.LoginRequest) (*models.LoginResponse, error)
	RegisterTeacher(ctx context.Context, req service.RegisterTeacherRequest) (*models.TeacherInfo, error)
	ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherInfo, *models.Pagination, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate teacher
// @Description Exchange email and password for a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Login successful", res)
}

// RegisterTeacher godoc
// @Summary Register teacher account
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.RegisterTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers [post]
func (h *AuthHandler) RegisterTeacher(c *gin.Context) {
	var req service.RegisterTeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.service.RegisterTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// ListTeachers godoc
// @Summary List teacher accounts
// @Tags Teachers
// @Produce json
// @Param search query string false "Name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *AuthHandler) ListTeachers(c *gin.Context) {
	filter := models.TeacherFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 20),
	}
	teachers, pagination, err := h.service.ListTeachers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Me godoc
// @Summary Current teacher claims
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": claims.TeacherID, "email": claims.Email, "role": claims.Role}, nil)
}
