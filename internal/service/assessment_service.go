package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, batchID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	UpsertSubmission(ctx context.Context, sub *models.Submission) error
	Evaluate(ctx context.Context, assignmentID, studentID string, marks float64, feedback string) (bool, error)
}

type quizRepository interface {
	List(ctx context.Context) ([]models.Quiz, error)
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	UpdateAttemptLimit(ctx context.Context, id string, limit int) error
	ListAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error)
	CountAttempts(ctx context.Context, quizID, studentID string) (int, error)
	InsertAttempt(ctx context.Context, attempt *models.QuizAttempt) error
}

// CreateAssignmentRequest is the payload for a new assignment.
type CreateAssignmentRequest struct {
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description"`
	LessonID       string    `json:"lessonId"`
	BatchID        *string   `json:"batchId"`
	Deadline       time.Time `json:"deadline" validate:"required"`
	MaxMarks       float64   `json:"maxMarks" validate:"gt=0"`
	SubmissionType string    `json:"submissionType" validate:"required,oneof=PDF Image JPG"`
}

// UpdateAssignmentRequest carries only the fields to change.
type UpdateAssignmentRequest struct {
	Title          *string                  `json:"title"`
	Description    *string                  `json:"description"`
	LessonID       *string                  `json:"lessonId"`
	BatchID        *string                  `json:"batchId"`
	Deadline       *time.Time               `json:"deadline"`
	MaxMarks       *float64                 `json:"maxMarks" validate:"omitempty,gt=0"`
	SubmissionType *string                  `json:"submissionType" validate:"omitempty,oneof=PDF Image JPG"`
	Status         *models.AssignmentStatus `json:"status" validate:"omitempty,oneof=Active Closed"`
}

// EvaluateRequest grades one student's submission.
type EvaluateRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0"`
	Feedback  string  `json:"feedback"`
}

// SubmissionRequest records a student's upload.
type SubmissionRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	FileURL   *string `json:"fileUrl"`
}

// QuizQuestionRequest is one question of a new quiz.
type QuizQuestionRequest struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
}

// CreateQuizRequest is the payload for a new quiz.
type CreateQuizRequest struct {
	Title        string                `json:"title" validate:"required"`
	LessonID     string                `json:"lessonId"`
	BatchID      *string               `json:"batchId"`
	Duration     int                   `json:"duration" validate:"gt=0"`
	TotalMarks   float64               `json:"totalMarks" validate:"gt=0"`
	AttemptLimit int                   `json:"attemptLimit" validate:"gte=0"`
	Questions    []QuizQuestionRequest `json:"questions" validate:"dive"`
}

// AttemptRequest records a scored quiz attempt.
type AttemptRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0"`
}

// AssessmentService manages assignments, quizzes and the student work recorded against them.
type AssessmentService struct {
	assignments assignmentRepository
	quizzes     quizRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(assignments assignmentRepository, quizzes quizRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{assignments: assignments, quizzes: quizzes, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ListAssignments returns assignments with their submissions.
func (s *AssessmentService) ListAssignments(ctx context.Context, batchID string) ([]models.Assignment, error) {
	assignments, err := s.assignments.List(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return nonNil(assignments), nil
}

// CreateAssignment stores an active assignment.
func (s *AssessmentService) CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment := &models.Assignment{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		LessonID:       req.LessonID,
		BatchID:        req.BatchID,
		Deadline:       req.Deadline,
		MaxMarks:       req.MaxMarks,
		SubmissionType: req.SubmissionType,
		Status:         models.AssignmentActive,
		Submissions:    []models.Submission{},
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// UpdateAssignment applies a partial change.
func (s *AssessmentService) UpdateAssignment(ctx context.Context, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		assignment.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.LessonID != nil {
		assignment.LessonID = *req.LessonID
	}
	if req.BatchID != nil {
		assignment.BatchID = req.BatchID
	}
	if req.Deadline != nil {
		assignment.Deadline = *req.Deadline
	}
	if req.MaxMarks != nil {
		assignment.MaxMarks = *req.MaxMarks
	}
	if req.SubmissionType != nil {
		assignment.SubmissionType = *req.SubmissionType
	}
	if req.Status != nil {
		assignment.Status = *req.Status
	}
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Evaluate grades a submission. Marks may not exceed the assignment maximum.
func (s *AssessmentService) Evaluate(ctx context.Context, id string, req EvaluateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return err
	}
	if req.Marks > assignment.MaxMarks {
		return appErrors.Clone(appErrors.ErrValidation, "marks exceed the assignment maximum")
	}
	found, err := s.assignments.Evaluate(ctx, id, req.StudentID, req.Marks, req.Feedback)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to evaluate submission")
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	s.cache.InvalidateAnalytics(ctx)
	return nil
}

// RecordSubmission stores a student's upload, flagging it late after the deadline.
func (s *AssessmentService) RecordSubmission(ctx context.Context, id string, req SubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	status := models.SubmissionSubmitted
	if now.After(assignment.Deadline) {
		status = models.SubmissionLateSubmitted
	}
	sub := &models.Submission{
		AssignmentID: id,
		StudentID:    req.StudentID,
		Status:       status,
		FileURL:      req.FileURL,
		SubmittedAt:  &now,
	}
	if err := s.assignments.UpsertSubmission(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}
	s.cache.InvalidateAnalytics(ctx)
	return sub, nil
}

// ListQuizzes returns quizzes with questions and attempt counts.
func (s *AssessmentService) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quizzes")
	}
	return nonNil(quizzes), nil
}

// CreateQuiz stores a quiz. A zero attempt limit becomes 1.
func (s *AssessmentService) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz payload")
	}
	limit := req.AttemptLimit
	if limit == 0 {
		limit = 1
	}
	quiz := &models.Quiz{
		Title:        strings.TrimSpace(req.Title),
		LessonID:     req.LessonID,
		BatchID:      req.BatchID,
		Duration:     req.Duration,
		TotalMarks:   req.TotalMarks,
		AttemptLimit: limit,
		Questions:    make([]models.QuizQuestion, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quiz")
	}
	return quiz, nil
}

// Attempts lists attempts for a quiz.
func (s *AssessmentService) Attempts(ctx context.Context, id string) ([]models.QuizAttempt, error) {
	if _, err := s.findQuiz(ctx, id); err != nil {
		return nil, err
	}
	attempts, err := s.quizzes.ListAttempts(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return nonNil(attempts), nil
}

// Restrict sets the per-student attempt limit.
func (s *AssessmentService) Restrict(ctx context.Context, id string, limit int) (*models.Quiz, error) {
	if limit < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attemptLimit must be at least 1")
	}
	quiz, err := s.findQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.quizzes.UpdateAttemptLimit(ctx, id, limit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restrict attempts")
	}
	quiz.AttemptLimit = limit
	return quiz, nil
}

// RecordAttempt stores a scored attempt unless the student used up the limit.
func (s *AssessmentService) RecordAttempt(ctx context.Context, id string, req AttemptRequest) (*models.QuizAttempt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	quiz, err := s.findQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Score > quiz.TotalMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds the quiz total")
	}
	used, err := s.quizzes.CountAttempts(ctx, id, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if used >= quiz.AttemptLimit {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attempt limit reached")
	}
	attempt := &models.QuizAttempt{QuizID: id, StudentID: req.StudentID, Score: req.Score, AttemptedAt: s.now().UTC()}
	if err := s.quizzes.InsertAttempt(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attempt")
	}
	s.cache.InvalidateAnalytics(ctx)
	return attempt, nil
}

func (s *AssessmentService) findAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

func (s *AssessmentService) findQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}
	return quiz, nil
}
