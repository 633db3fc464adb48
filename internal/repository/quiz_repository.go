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

const quizSelect = `SELECT q.id, q.title, q.lesson_id, q.batch_id, q.duration, q.total_marks, q.attempt_limit, q.created_at, q.updated_at,
        (SELECT COUNT(*) FROM quiz_attempts qa WHERE qa.quiz_id = q.id) AS attempt_count
        FROM quizzes q`

// QuizRepository persists quizzes, their questions and attempts.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs a QuizRepository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// List returns quizzes newest first with their questions.
func (r *QuizRepository) List(ctx context.Context) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.db.SelectContext(ctx, &quizzes, quizSelect+" ORDER BY q.created_at DESC"); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return quizzes, nil
	}
	ids := make([]string, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}
	questions, err := r.questions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range quizzes {
		quizzes[i].Questions = questions[quizzes[i].ID]
		if quizzes[i].Questions == nil {
			quizzes[i].Questions = []models.QuizQuestion{}
		}
	}
	return quizzes, nil
}

// FindByID returns a quiz with its questions.
func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, quizSelect+" WHERE q.id = $1", id); err != nil {
		return nil, err
	}
	questions, err := r.questions(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions[id]
	if quiz.Questions == nil {
		quiz.Questions = []models.QuizQuestion{}
	}
	return &quiz, nil
}

func (r *QuizRepository) questions(ctx context.Context, quizIDs []string) (map[string][]models.QuizQuestion, error) {
	const query = `SELECT id, quiz_id, position, question, options, correct_answer FROM quiz_questions
        WHERE quiz_id = ANY($1) ORDER BY quiz_id, position`
	var rows []models.QuizQuestion
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(quizIDs)); err != nil {
		return nil, fmt.Errorf("list quiz questions: %w", err)
	}
	out := make(map[string][]models.QuizQuestion, len(quizIDs))
	for _, q := range rows {
		out[q.QuizID] = append(out[q.QuizID], q)
	}
	return out, nil
}

// Create inserts a quiz and its questions atomically.
func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	quiz.CreatedAt, quiz.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create quiz: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO quizzes (id, title, lesson_id, batch_id, duration, total_marks, attempt_limit, created_at, updated_at)
        VALUES (:id, :title, :lesson_id, :batch_id, :duration, :total_marks, :attempt_limit, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, quiz); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	const questionQuery = `INSERT INTO quiz_questions (id, quiz_id, position, question, options, correct_answer)
        VALUES (:id, :quiz_id, :position, :question, :options, :correct_answer)`
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.QuizID, q.Position = quiz.ID, i
		if q.Options == nil {
			q.Options = []string{}
		}
		if _, err := tx.NamedExecContext(ctx, questionQuery, q); err != nil {
			return fmt.Errorf("create quiz question: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateAttemptLimit changes how many attempts each student gets.
func (r *QuizRepository) UpdateAttemptLimit(ctx context.Context, id string, limit int) error {
	const query = `UPDATE quizzes SET attempt_limit = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, limit, time.Now().UTC()); err != nil {
		return fmt.Errorf("update attempt limit: %w", err)
	}
	return nil
}

// ListAttempts returns a quiz's attempts with student identity.
func (r *QuizRepository) ListAttempts(ctx context.Context, quizID string) ([]models.QuizAttempt, error) {
	const query = `SELECT qa.id, qa.quiz_id, qa.student_id, COALESCE(s.name, '') AS student_name, COALESCE(s.enrollment_id, '') AS enrollment_id, qa.score, qa.attempted_at
        FROM quiz_attempts qa LEFT JOIN students s ON s.id = qa.student_id
        WHERE qa.quiz_id = $1 ORDER BY qa.attempted_at DESC`
	var attempts []models.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}

// CountAttempts counts a student's attempts on a quiz.
func (r *QuizRepository) CountAttempts(ctx context.Context, quizID, studentID string) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2`
	if err := r.db.GetContext(ctx, &total, query, quizID, studentID); err != nil {
		return 0, fmt.Errorf("count quiz attempts: %w", err)
	}
	return total, nil
}

// InsertAttempt records a scored attempt.
func (r *QuizRepository) InsertAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quiz_attempts (id, quiz_id, student_id, score, attempted_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, attempt.ID, attempt.QuizID, attempt.StudentID, attempt.Score, attempt.AttemptedAt); err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

// AttemptScores returns the aggregation view of attempts. A nil studentIDs
// slice selects every attempt.
func (r *QuizRepository) AttemptScores(ctx context.Context, studentIDs []string) ([]models.AttemptScore, error) {
	query := `SELECT qa.student_id::text AS student_id, qa.score, q.total_marks
        FROM quiz_attempts qa JOIN quizzes q ON q.id = qa.quiz_id`
	args := []interface{}{}
	if studentIDs != nil {
		query += " WHERE qa.student_id = ANY($1)"
		args = append(args, pq.Array(studentIDs))
	}
	var scores []models.AttemptScore
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list attempt scores: %w", err)
	}
	return scores, nil
}

// ListByStudent returns a student's attempts joined with the quiz.
func (r *QuizRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentQuizAttempt, error) {
	const query = `SELECT q.id AS quiz_id, q.title AS quiz_title, q.total_marks, qa.score, qa.attempted_at
        FROM quiz_attempts qa JOIN quizzes q ON q.id = qa.quiz_id
        WHERE qa.student_id = $1 ORDER BY qa.attempted_at`
	var attempts []models.StudentQuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, studentID); err != nil {
		return nil, fmt.Errorf("list student quiz attempts: %w", err)
	}
	return attempts, nil
}

// CountAttemptedQuizzes counts distinct quizzes a student attempted.
func (r *QuizRepository) CountAttemptedQuizzes(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(DISTINCT quiz_id) FROM quiz_attempts WHERE student_id = $1", studentID); err != nil {
		return 0, fmt.Errorf("count attempted quizzes: %w", err)
	}
	return total, nil
}

// Count returns the number of quizzes.
func (r *QuizRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM quizzes"); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return total, nil
}
