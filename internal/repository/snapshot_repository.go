package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

const snapshotColumns = `id, student_id, week_number, week_start, week_end, quiz_average, assignment_average,
        attendance_percentage, completion_rate, submission_consistency, ogi, created_at`

// SnapshotRepository stores weekly snapshots in Postgres.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert appends a snapshot. Snapshots are never updated.
func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *models.WeeklySnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO weekly_snapshots (id, student_id, week_number, week_start, week_end, quiz_average, assignment_average,
        attendance_percentage, completion_rate, submission_consistency, ogi, created_at)
        VALUES (:id, :student_id, :week_number, :week_start, :week_end, :quiz_average, :assignment_average,
        :attendance_percentage, :completion_rate, :submission_consistency, :ogi, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// MaxWeekNumber returns the highest week number, 0 when empty.
func (r *SnapshotRepository) MaxWeekNumber(ctx context.Context) (int, error) {
	var week int
	if err := r.db.GetContext(ctx, &week, "SELECT COALESCE(MAX(week_number), 0) FROM weekly_snapshots"); err != nil {
		return 0, fmt.Errorf("max week number: %w", err)
	}
	return week, nil
}

// ListByStudent returns a student's snapshots in ascending week order.
func (r *SnapshotRepository) ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySnapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM weekly_snapshots WHERE student_id = $1 ORDER BY week_number, created_at"
	var snapshots []models.WeeklySnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, studentID); err != nil {
		return nil, fmt.Errorf("list student snapshots: %w", err)
	}
	return snapshots, nil
}

// RecentByStudents returns up to limit latest snapshots per student, each
// slice in ascending week order.
func (r *SnapshotRepository) RecentByStudents(ctx context.Context, studentIDs []string, limit int) (map[string][]models.WeeklySnapshot, error) {
	out := make(map[string][]models.WeeklySnapshot, len(studentIDs))
	if len(studentIDs) == 0 || limit <= 0 {
		return out, nil
	}
	query := `SELECT ` + snapshotColumns + ` FROM (
        SELECT *, ROW_NUMBER() OVER (PARTITION BY student_id ORDER BY week_number DESC, created_at DESC) AS rn
        FROM weekly_snapshots WHERE student_id = ANY($1)
    ) ranked WHERE rn <= $2 ORDER BY student_id, week_number, created_at`
	var rows []models.WeeklySnapshot
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(studentIDs), limit); err != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", err)
	}
	for _, s := range rows {
		out[s.StudentID] = append(out[s.StudentID], s)
	}
	return out, nil
}

// ListByWeekRange returns snapshots with from <= week_number <= to.
func (r *SnapshotRepository) ListByWeekRange(ctx context.Context, from, to int) ([]models.WeeklySnapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM weekly_snapshots WHERE week_number BETWEEN $1 AND $2 ORDER BY week_number, created_at"
	var snapshots []models.WeeklySnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, from, to); err != nil {
		return nil, fmt.Errorf("list snapshots by week: %w", err)
	}
	return snapshots, nil
}
