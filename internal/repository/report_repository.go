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

const reportJobColumns = `id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

const (
	defaultRecoveryBatch = 20
	defaultCleanupBatch  = 50
)

// ReportRepository stores the state of background exports (student reports,
// attendance sheets and leaderboards) in report_jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ReportJobChange lists the columns a worker may move forward. Nil fields are
// left untouched.
type ReportJobChange struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

type columnValue struct {
	column string
	value  interface{}
}

func (c ReportJobChange) assignments() []columnValue {
	var out []columnValue
	if c.Status != nil {
		out = append(out, columnValue{"status", *c.Status})
	}
	if c.Progress != nil {
		out = append(out, columnValue{"progress", *c.Progress})
	}
	if c.ResultURL != nil {
		out = append(out, columnValue{"result_url", *c.ResultURL})
	}
	if c.ErrorMessage != nil {
		out = append(out, columnValue{"error_message", *c.ErrorMessage})
	}
	if c.FinishedAt != nil {
		out = append(out, columnValue{"finished_at", *c.FinishedAt})
	}
	return out
}

// Create queues an export. ID, status and creation time are filled when empty.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (` + reportJobColumns + `)
        VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("queue %s export: %w", job.Type, err)
	}
	return nil
}

// GetByID loads one export. sql.ErrNoRows is returned unwrapped so callers can
// map it to not found.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, "SELECT "+reportJobColumns+" FROM report_jobs WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &job, nil
}

// Update applies a worker's progress to the export row.
func (r *ReportRepository) Update(ctx context.Context, id string, change ReportJobChange) error {
	assignments := change.assignments()
	if len(assignments) == 0 {
		return nil
	}
	set := make([]string, len(assignments))
	args := make([]interface{}, 0, len(assignments)+1)
	for i, a := range assignments {
		set[i] = fmt.Sprintf("%s = $%d", a.column, i+1)
		args = append(args, a.value)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update export %s: %w", id, err)
	}
	return nil
}

// ListQueued returns exports that never reached a worker, oldest first, so a
// restarted server can enqueue them again.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = defaultRecoveryBatch
	}
	return r.selectJobs(ctx, "status = $1 ORDER BY created_at ASC LIMIT $2", models.ReportStatusQueued, limit)
}

// ListFinishedBefore returns finished exports whose files expired before cutoff.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = defaultCleanupBatch
	}
	return r.selectJobs(ctx, "status = $1 AND finished_at IS NOT NULL AND finished_at < $2 ORDER BY finished_at ASC LIMIT $3",
		models.ReportStatusFinished, cutoff, limit)
}

func (r *ReportRepository) selectJobs(ctx context.Context, where string, args ...interface{}) ([]models.ReportJob, error) {
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, "SELECT "+reportJobColumns+" FROM report_jobs WHERE "+where, args...); err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return jobs, nil
}
