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

type batchRepository interface {
	List(ctx context.Context) ([]models.Batch, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch, members []string) error
}

// CreateBatchRequest is the payload for a new batch.
type CreateBatchRequest struct {
	Name      string             `json:"name" validate:"required"`
	Course    string             `json:"course" validate:"required"`
	StartDate time.Time          `json:"startDate" validate:"required"`
	EndDate   *time.Time         `json:"endDate"`
	Status    models.BatchStatus `json:"status"`
	Progress  int                `json:"progress"`
	Students  []string           `json:"students"`
}

// UpdateBatchRequest carries only the fields to change.
type UpdateBatchRequest struct {
	Name      *string             `json:"name"`
	Course    *string             `json:"course"`
	StartDate *time.Time          `json:"startDate"`
	EndDate   *time.Time          `json:"endDate"`
	Status    *models.BatchStatus `json:"status"`
	Progress  *int                `json:"progress"`
	Students  []string            `json:"students"`
}

// BatchService manages cohorts.
type BatchService struct {
	repo      batchRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService constructs a BatchService.
func NewBatchService(repo batchRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every batch with member ids.
func (s *BatchService) List(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return nonNil(batches), nil
}

// Create stores a batch. Status defaults to Upcoming.
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if req.Status == "" {
		req.Status = models.BatchStatusUpcoming
	}
	if err := validateBatchState(req.Status, req.Progress); err != nil {
		return nil, err
	}
	batch := &models.Batch{
		Name:       strings.TrimSpace(req.Name),
		Course:     strings.TrimSpace(req.Course),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     req.Status,
		Progress:   req.Progress,
		StudentIDs: nonNil(req.Students),
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	s.cache.InvalidateAnalytics(ctx)
	return batch, nil
}

// Update applies a partial change. A nil Students list keeps the membership.
func (s *BatchService) Update(ctx context.Context, id string, req UpdateBatchRequest) (*models.Batch, error) {
	batch, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		batch.Name = strings.TrimSpace(*req.Name)
	}
	if req.Course != nil {
		batch.Course = strings.TrimSpace(*req.Course)
	}
	if req.StartDate != nil {
		batch.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		batch.EndDate = req.EndDate
	}
	if req.Status != nil {
		batch.Status = *req.Status
	}
	if req.Progress != nil {
		batch.Progress = *req.Progress
	}
	if err := validateBatchState(batch.Status, batch.Progress); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, batch, req.Students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch")
	}
	s.cache.InvalidateAnalytics(ctx)
	return batch, nil
}

// End marks the batch completed at full progress.
func (s *BatchService) End(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	batch.Status = models.BatchStatusCompleted
	batch.Progress = 100
	if err := s.repo.Update(ctx, batch, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end batch")
	}
	s.cache.InvalidateAnalytics(ctx)
	s.logger.Info("batch ended", zap.String("batch_id", id))
	return batch, nil
}

func (s *BatchService) find(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

func validateBatchState(status models.BatchStatus, progress int) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be one of Upcoming, Ongoing, Completed")
	}
	if progress < 0 || progress > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "progress must be between 0 and 100")
	}
	return nil
}
