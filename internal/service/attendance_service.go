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

type attendanceRepository interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Attendance, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Create(ctx context.Context, sheet *models.Attendance) error
	Update(ctx context.Context, id string, remark *string, records []models.AttendanceRecord) error
	HistoryByStudent(ctx context.Context, studentID string) ([]models.StudentAttendanceEntry, error)
}

// AttendanceRecordInput is one student's status on a submitted sheet.
type AttendanceRecordInput struct {
	StudentID string                  `json:"studentId" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=Present Absent Late"`
}

// SubmitAttendanceRequest is the payload for a new sheet.
type SubmitAttendanceRequest struct {
	BatchID string                  `json:"batchId" validate:"required"`
	Date    time.Time               `json:"date" validate:"required"`
	Remark  string                  `json:"remark"`
	Records []AttendanceRecordInput `json:"records" validate:"dive"`
}

// EditAttendanceRequest replaces the supplied fields of a sheet.
type EditAttendanceRequest struct {
	Remark  *string                 `json:"remark"`
	Records []AttendanceRecordInput `json:"records" validate:"omitempty,dive"`
}

// AttendanceService records attendance sheets and guards edits with the edit window.
type AttendanceService struct {
	repo      attendanceRepository
	batches   batchFinder
	window    EditWindow
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, batches batchFinder, window EditWindow, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, batches: batches, window: window, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ListByBatch returns a batch's sheets newest first with editability resolved.
func (s *AttendanceService) ListByBatch(ctx context.Context, batchID string) ([]models.Attendance, error) {
	sheets, err := s.repo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	now := s.now()
	for i := range sheets {
		sheets[i].IsEditable = s.window.Editable(sheets[i].SubmittedAt, now)
	}
	return nonNil(sheets), nil
}

// Submit records a new sheet. A remark is mandatory.
func (s *AttendanceService) Submit(ctx context.Context, req SubmitAttendanceRequest) (*models.Attendance, error) {
	req.Remark = strings.TrimSpace(req.Remark)
	if req.Remark == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remark is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.batches.FindByID(ctx, req.BatchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	sheet := &models.Attendance{
		BatchID:     req.BatchID,
		Date:        req.Date,
		Remark:      req.Remark,
		SubmittedAt: s.now().UTC(),
		Records:     toAttendanceRecords(req.Records),
	}
	if err := s.repo.Create(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit attendance")
	}
	sheet.IsEditable = true
	s.cache.InvalidateAnalytics(ctx)
	return sheet, nil
}

// Edit replaces the remark and/or records while the sheet is inside its edit window.
func (s *AttendanceService) Edit(ctx context.Context, id string, req EditAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	sheet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if !s.window.Editable(sheet.SubmittedAt, s.now()) {
		return nil, appErrors.Clone(appErrors.ErrAttendanceLocked, "")
	}

	// A blank remark counts as not supplied and keeps the stored one.
	var remark *string
	if req.Remark != nil {
		if trimmed := strings.TrimSpace(*req.Remark); trimmed != "" {
			remark = &trimmed
			sheet.Remark = trimmed
		}
	}
	var records []models.AttendanceRecord
	if req.Records != nil {
		records = toAttendanceRecords(req.Records)
	}
	if err := s.repo.Update(ctx, id, remark, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	if records != nil {
		sheet.Records = records
	}
	sheet.IsEditable = true
	s.cache.InvalidateAnalytics(ctx)
	return sheet, nil
}

// StudentHistory returns every sheet holding a record for the student, newest first.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID string) ([]models.StudentAttendanceEntry, error) {
	history, err := s.repo.HistoryByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return nonNil(history), nil
}

func toAttendanceRecords(inputs []AttendanceRecordInput) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, len(inputs))
	for _, in := range inputs {
		records = append(records, models.AttendanceRecord{StudentID: in.StudentID, Status: in.Status})
	}
	return records
}
