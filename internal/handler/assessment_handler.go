package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/response"
)

type assessmentService interface {
	ListAssignments(ctx context.Context, batchID string) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, req service.CreateAssignmentRequest) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, id string, req service.UpdateAssignmentRequest) (*models.Assignment, error)
	Evaluate(ctx context.Context, id string, req service.EvaluateRequest) error
	RecordSubmission(ctx context.Context, id string, req service.SubmissionRequest) (*models.Submission, error)
	ListQuizzes(ctx context.Context) ([]models.Quiz, error)
	CreateQuiz(ctx context.Context, req service.CreateQuizRequest) (*models.Quiz, error)
	Attempts(ctx context.Context, id string) ([]models.QuizAttempt, error)
	Restrict(ctx context.Context, id string, limit int) (*models.Quiz, error)
	RecordAttempt(ctx context.Context, id string, req service.AttemptRequest) (*models.QuizAttempt, error)
}

// RestrictQuizRequest changes how often a student may attempt a quiz.
type RestrictQuizRequest struct {
	AttemptLimit int `json:"attemptLimit" binding:"required"`
}

// AssessmentHandler serves assignments and quizzes.
type AssessmentHandler struct {
	assessments assessmentService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments assessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// ListAssignments godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param batchId query string false "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssessmentHandler) ListAssignments(c *gin.Context) {
	items, err := h.assessments.ListAssignments(c.Request.Context(), c.Query("batchId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateAssignment godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssessmentHandler) CreateAssignment(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.assessments.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateAssignment godoc
// @Summary Update assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AssessmentHandler) UpdateAssignment(c *gin.Context) {
	var req service.UpdateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.assessments.UpdateAssignment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Evaluate godoc
// @Summary Grade a submission
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.EvaluateRequest true "Marks and feedback"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id}/evaluate [post]
func (h *AssessmentHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.assessments.Evaluate(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Submission evaluated", nil)
}

// RecordSubmission godoc
// @Summary Record a student submission
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.SubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/submissions [post]
func (h *AssessmentHandler) RecordSubmission(c *gin.Context) {
	var req service.SubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	submission, err := h.assessments.RecordSubmission(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// ListQuizzes godoc
// @Summary List quizzes
// @Tags Quizzes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /quizzes [get]
func (h *AssessmentHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.assessments.ListQuizzes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quizzes, nil)
}

// CreateQuiz godoc
// @Summary Create quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Router /quizzes [post]
func (h *AssessmentHandler) CreateQuiz(c *gin.Context) {
	var req service.CreateQuizRequest
	if !bindJSON(c, &req) {
		return
	}
	quiz, err := h.assessments.CreateQuiz(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// Attempts godoc
// @Summary List quiz attempts
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id}/attempts [get]
func (h *AssessmentHandler) Attempts(c *gin.Context) {
	attempts, err := h.assessments.Attempts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts, nil)
}

// Restrict godoc
// @Summary Limit quiz attempts
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body RestrictQuizRequest true "Attempt limit"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id}/restrict [put]
func (h *AssessmentHandler) Restrict(c *gin.Context) {
	var req RestrictQuizRequest
	if !bindJSON(c, &req) {
		return
	}
	quiz, err := h.assessments.Restrict(c.Request.Context(), c.Param("id"), req.AttemptLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// RecordAttempt godoc
// @Summary Record a quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body service.AttemptRequest true "Attempt payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /quizzes/{id}/attempts [post]
func (h *AssessmentHandler) RecordAttempt(c *gin.Context) {
	var req service.AttemptRequest
	if !bindJSON(c, &req) {
		return
	}
	attempt, err := h.assessments.RecordAttempt(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}
