package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

const batchSelect = `SELECT b.id, b.name, b.course, b.start_date, b.end_date, b.status, b.progress, b.created_at, b.updated_at,
        COALESCE(ARRAY_AGG(bs.student_id::text ORDER BY bs.student_id) FILTER (WHERE bs.student_id IS NOT NULL), '{}') AS student_ids
        FROM batches b LEFT JOIN batch_students bs ON bs.batch_id = b.id`

// BatchRepository persists batches and their membership.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns every batch, newest start first.
func (r *BatchRepository) List(ctx context.Context) ([]models.Batch, error) {
	query := batchSelect + " GROUP BY b.id ORDER BY b.start_date DESC, b.created_at DESC"
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// FindByID returns one batch with its member ids.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	query := batchSelect + " WHERE b.id = $1 GROUP BY b.id"
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Create inserts a batch and its members in one transaction.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	batch.CreatedAt, batch.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO batches (id, name, course, start_date, end_date, status, progress, created_at, updated_at)
        VALUES (:id, :name, :course, :start_date, :end_date, :status, :progress, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	if err := replaceMembers(ctx, tx, batch.ID, batch.StudentIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update overwrites the batch row and, when members is non-nil, its membership.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch, members []string) error {
	batch.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE batches SET name = :name, course = :course, start_date = :start_date, end_date = :end_date,
        status = :status, progress = :progress, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if members != nil {
		if err := replaceMembers(ctx, tx, batch.ID, members); err != nil {
			return err
		}
		batch.StudentIDs = members
	}
	return tx.Commit()
}

func replaceMembers(ctx context.Context, tx *sqlx.Tx, batchID string, members []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM batch_students WHERE batch_id = $1", batchID); err != nil {
		return fmt.Errorf("clear batch members: %w", err)
	}
	for _, studentID := range members {
		if _, err := tx.ExecContext(ctx, "INSERT INTO batch_students (batch_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", batchID, studentID); err != nil {
			return fmt.Errorf("add batch member: %w", err)
		}
	}
	return nil
}

// CountByStatus counts batches in a lifecycle state.
func (r *BatchRepository) CountByStatus(ctx context.Context, status models.BatchStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM batches WHERE status = $1", status); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return total, nil
}

// FirstBatchNames maps each student to the earliest created batch they belong to.
func (r *BatchRepository) FirstBatchNames(ctx context.Context) (map[string]string, error) {
	const query = `SELECT DISTINCT ON (bs.student_id) bs.student_id::text AS student_id, b.id::text AS batch_id, b.name AS batch_name
        FROM batch_students bs JOIN batches b ON b.id = bs.batch_id
        ORDER BY bs.student_id, b.created_at, b.id`
	var rows []models.BatchMembership
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list batch memberships: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.StudentID] = row.BatchName
	}
	return names, nil
}
