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

const backupClassScheduled = "Scheduled"

type supportRepository interface {
	List(ctx context.Context, filter models.SupportFilter) ([]models.SupportRequest, error)
	FindByID(ctx context.Context, id string) (*models.SupportRequest, error)
	Create(ctx context.Context, request *models.SupportRequest) error
	Update(ctx context.Context, request *models.SupportRequest) error
}

// CreateSupportRequest opens a ticket.
type CreateSupportRequest struct {
	StudentID     string  `json:"studentId" validate:"required"`
	StudentName   string  `json:"studentName" validate:"required"`
	Course        string  `json:"course" validate:"required"`
	Topic         string  `json:"topic" validate:"required"`
	Description   string  `json:"description" validate:"required"`
	AttachmentURL *string `json:"attachmentUrl"`
}

// SupportReplyRequest answers a ticket.
type SupportReplyRequest struct {
	Reply        string  `json:"reply" validate:"required"`
	ReplyFileURL *string `json:"replyFileUrl"`
}

// SupportService runs the support inbox.
type SupportService struct {
	repo      supportRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupportService constructs a SupportService.
func NewSupportService(repo supportRepository, validate *validator.Validate, logger *zap.Logger) *SupportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportService{repo: repo, validator: validate, logger: logger}
}

// List returns tickets newest first.
func (s *SupportService) List(ctx context.Context, filter models.SupportFilter) ([]models.SupportRequest, error) {
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support requests")
	}
	return nonNil(requests), nil
}

// Create opens a pending ticket.
func (s *SupportService) Create(ctx context.Context, req CreateSupportRequest) (*models.SupportRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid support request")
	}
	request := &models.SupportRequest{
		StudentID:     req.StudentID,
		StudentName:   strings.TrimSpace(req.StudentName),
		Course:        strings.TrimSpace(req.Course),
		Topic:         strings.TrimSpace(req.Topic),
		Description:   req.Description,
		AttachmentURL: req.AttachmentURL,
		Status:        models.SupportPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create support request")
	}
	return request, nil
}

// Reply attaches a teacher answer.
func (s *SupportService) Reply(ctx context.Context, id string, req SupportReplyRequest) (*models.SupportRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reply is required")
	}
	return s.mutate(ctx, id, func(r *models.SupportRequest) {
		reply := strings.TrimSpace(req.Reply)
		r.Reply = &reply
		r.ReplyFileURL = req.ReplyFileURL
	})
}

// Resolve closes a ticket.
func (s *SupportService) Resolve(ctx context.Context, id string) (*models.SupportRequest, error) {
	return s.mutate(ctx, id, func(r *models.SupportRequest) {
		r.Status = models.SupportResolved
	})
}

// ScheduleBackup books a make-up class for the ticket.
func (s *SupportService) ScheduleBackup(ctx context.Context, id string, date time.Time) (*models.SupportRequest, error) {
	if date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	return s.mutate(ctx, id, func(r *models.SupportRequest) {
		status := backupClassScheduled
		r.BackupClassDate = &date
		r.BackupClassStatus = &status
	})
}

func (s *SupportService) mutate(ctx context.Context, id string, apply func(*models.SupportRequest)) (*models.SupportRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "support request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support request")
	}
	apply(request)
	if err := s.repo.Update(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update support request")
	}
	return request, nil
}
