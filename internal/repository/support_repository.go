package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

const supportColumns = `id, student_id, student_name, course, topic, description, attachment_url, status, reply,
        reply_file_url, backup_class_date, backup_class_status, created_at, updated_at`

// SupportRepository persists support requests.
type SupportRepository struct {
	db *sqlx.DB
}

// NewSupportRepository constructs a SupportRepository.
func NewSupportRepository(db *sqlx.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// List returns requests matching the filter, newest first.
func (r *SupportRepository) List(ctx context.Context, filter models.SupportFilter) ([]models.SupportRequest, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Course != "" {
		args = append(args, filter.Course)
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM support_requests WHERE %s ORDER BY created_at DESC", supportColumns, strings.Join(conditions, " AND "))
	var requests []models.SupportRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list support requests: %w", err)
	}
	return requests, nil
}

// FindByID fetches a request.
func (r *SupportRepository) FindByID(ctx context.Context, id string) (*models.SupportRequest, error) {
	var request models.SupportRequest
	if err := r.db.GetContext(ctx, &request, "SELECT "+supportColumns+" FROM support_requests WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a request.
func (r *SupportRepository) Create(ctx context.Context, request *models.SupportRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt, request.UpdatedAt = now, now
	if request.Status == "" {
		request.Status = models.SupportPending
	}
	const query = `INSERT INTO support_requests (id, student_id, student_name, course, topic, description, attachment_url, status, reply,
        reply_file_url, backup_class_date, backup_class_status, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :course, :topic, :description, :attachment_url, :status, :reply,
        :reply_file_url, :backup_class_date, :backup_class_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create support request: %w", err)
	}
	return nil
}

// Update overwrites the reply, status and backup class fields.
func (r *SupportRepository) Update(ctx context.Context, request *models.SupportRequest) error {
	request.UpdatedAt = time.Now().UTC()
	const query = `UPDATE support_requests SET status = :status, reply = :reply, reply_file_url = :reply_file_url,
        backup_class_date = :backup_class_date, backup_class_status = :backup_class_status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("update support request: %w", err)
	}
	return nil
}
