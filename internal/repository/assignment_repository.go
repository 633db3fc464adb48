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

const assignmentColumns = `id, title, description, lesson_id, batch_id, deadline, max_marks, submission_type, status, created_at, updated_at`

// AssignmentRepository persists assignments and their submissions.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments, newest deadline first, with submissions attached.
func (r *AssignmentRepository) List(ctx context.Context, batchID string) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments"
	args := []interface{}{}
	if batchID != "" {
		query += " WHERE batch_id = $1"
		args = append(args, batchID)
	}
	query += " ORDER BY deadline DESC"

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	if len(assignments) == 0 {
		return assignments, nil
	}

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ID
	}
	var subs []models.Submission
	const subQuery = `SELECT id, assignment_id, student_id, status, file_url, marks, feedback, submitted_at
        FROM assignment_submissions WHERE assignment_id = ANY($1) ORDER BY submitted_at NULLS LAST`
	if err := r.db.SelectContext(ctx, &subs, subQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	byAssignment := make(map[string][]models.Submission, len(assignments))
	for _, s := range subs {
		byAssignment[s.AssignmentID] = append(byAssignment[s.AssignmentID], s)
	}
	for i := range assignments {
		assignments[i].Submissions = byAssignment[assignments[i].ID]
		if assignments[i].Submissions == nil {
			assignments[i].Submissions = []models.Submission{}
		}
	}
	return assignments, nil
}

// FindByID returns an assignment without submissions.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, "SELECT "+assignmentColumns+" FROM assignments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt, assignment.UpdatedAt = now, now
	const query = `INSERT INTO assignments (id, title, description, lesson_id, batch_id, deadline, max_marks, submission_type, status, created_at, updated_at)
        VALUES (:id, :title, :description, :lesson_id, :batch_id, :deadline, :max_marks, :submission_type, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update overwrites the assignment row.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, lesson_id = :lesson_id, batch_id = :batch_id,
        deadline = :deadline, max_marks = :max_marks, submission_type = :submission_type, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// UpsertSubmission records a student's work, replacing an earlier submission.
func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	const query = `INSERT INTO assignment_submissions (id, assignment_id, student_id, status, file_url, marks, feedback, submitted_at)
        VALUES (:id, :assignment_id, :student_id, :status, :file_url, :marks, :feedback, :submitted_at)
        ON CONFLICT (assignment_id, student_id) DO UPDATE SET status = EXCLUDED.status, file_url = EXCLUDED.file_url, submitted_at = EXCLUDED.submitted_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// Evaluate grades an existing submission. It returns false when the student has none.
func (r *AssignmentRepository) Evaluate(ctx context.Context, assignmentID, studentID string, marks float64, feedback string) (bool, error) {
	const query = `UPDATE assignment_submissions SET status = $3, marks = $4, feedback = $5 WHERE assignment_id = $1 AND student_id = $2`
	res, err := r.db.ExecContext(ctx, query, assignmentID, studentID, models.SubmissionEvaluated, marks, feedback)
	if err != nil {
		return false, fmt.Errorf("evaluate submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("evaluate submission: %w", err)
	}
	return n > 0, nil
}

// SubmissionScores returns the aggregation view of submissions. A nil
// studentIDs slice selects every submission.
func (r *AssignmentRepository) SubmissionScores(ctx context.Context, studentIDs []string) ([]models.SubmissionScore, error) {
	query := `SELECT s.student_id::text AS student_id, s.status, s.marks, a.max_marks
        FROM assignment_submissions s JOIN assignments a ON a.id = s.assignment_id`
	args := []interface{}{}
	if studentIDs != nil {
		query += " WHERE s.student_id = ANY($1)"
		args = append(args, pq.Array(studentIDs))
	}
	var scores []models.SubmissionScore
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list submission scores: %w", err)
	}
	return scores, nil
}

// ListByStudent returns a student's submissions joined with the assignment.
func (r *AssignmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentSubmission, error) {
	const query = `SELECT a.id AS assignment_id, a.title AS assignment_title, a.max_marks, a.deadline, s.status, s.marks, s.feedback, s.submitted_at
        FROM assignment_submissions s JOIN assignments a ON a.id = s.assignment_id
        WHERE s.student_id = $1 ORDER BY a.deadline`
	var subs []models.StudentSubmission
	if err := r.db.SelectContext(ctx, &subs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return subs, nil
}

// CountPending counts submissions waiting for evaluation.
func (r *AssignmentRepository) CountPending(ctx context.Context) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM assignment_submissions WHERE status IN ($1, $2)`
	if err := r.db.GetContext(ctx, &total, query, models.SubmissionSubmitted, models.SubmissionLateSubmitted); err != nil {
		return 0, fmt.Errorf("count pending submissions: %w", err)
	}
	return total, nil
}

// UpcomingDeadlines lists active assignments due within [from, to].
func (r *AssignmentRepository) UpcomingDeadlines(ctx context.Context, from, to time.Time) ([]models.UpcomingDeadline, error) {
	const query = `SELECT id, title, deadline, max_marks FROM assignments
        WHERE status = $1 AND deadline >= $2 AND deadline <= $3 ORDER BY deadline`
	var deadlines []models.UpcomingDeadline
	if err := r.db.SelectContext(ctx, &deadlines, query, models.AssignmentActive, from, to); err != nil {
		return nil, fmt.Errorf("list upcoming deadlines: %w", err)
	}
	return deadlines, nil
}

// Count returns the number of assignments.
func (r *AssignmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments"); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return total, nil
}
