package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func TestAssignmentRepositoryListAttachesSubmissions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE batch_id = $1 ORDER BY deadline DESC")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "lesson_id", "batch_id", "deadline", "max_marks", "submission_type", "status", "created_at", "updated_at"}).
			AddRow("a1", "HTML", "", "l1", "b1", now, 10.0, "PDF", "Active", now, now).
			AddRow("a2", "CSS", "", "l2", "b1", now, 20.0, "PDF", "Active", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignment_submissions WHERE assignment_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "status", "file_url", "marks", "feedback", "submitted_at"}).
			AddRow("sub1", "a1", "s1", "Evaluated", nil, 8.0, "good", now))

	assignments, err := repo.List(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Len(t, assignments[0].Submissions, 1)
	assert.Equal(t, 8.0, *assignments[0].Submissions[0].Marks)
	assert.NotNil(t, assignments[1].Submissions)
	assert.Empty(t, assignments[1].Submissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryEvaluateMissingSubmission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignment_submissions SET status = $3, marks = $4, feedback = $5 WHERE assignment_id = $1 AND student_id = $2")).
		WithArgs("a1", "s1", models.SubmissionEvaluated, 7.5, "ok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Evaluate(context.Background(), "a1", "s1", 7.5, "ok")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySubmissionScoresScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN assignments a ON a.id = s.assignment_id WHERE s.student_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "status", "marks", "max_marks"}).
			AddRow("s1", "Evaluated", 5.0, 10.0).
			AddRow("s1", "Submitted", nil, 10.0))

	scores, err := repo.SubmissionScores(context.Background(), []string{"s1"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Nil(t, scores[1].Marks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignment_submissions WHERE status IN ($1, $2)")).
		WithArgs(models.SubmissionSubmitted, models.SubmissionLateSubmitted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryCreateWritesQuestionsInOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO quizzes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO quiz_questions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 0, "Q1", sqlmock.AnyArg(), "A").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO quiz_questions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 1, "Q2", sqlmock.AnyArg(), "B").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	quiz := &models.Quiz{Title: "Basics", TotalMarks: 10, AttemptLimit: 1, Questions: []models.QuizQuestion{
		{Question: "Q1", Options: []string{"A", "B"}, CorrectAnswer: "A"},
		{Question: "Q2", CorrectAnswer: "B"},
	}}
	require.NoError(t, repo.Create(context.Background(), quiz))
	assert.Equal(t, quiz.ID, quiz.Questions[1].QuizID)
	assert.NotNil(t, quiz.Questions[1].Options)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM quizzes q WHERE q.id = $1")).
		WithArgs("q1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "lesson_id", "batch_id", "duration", "total_marks", "attempt_limit", "created_at", "updated_at", "attempt_count"}).
			AddRow("q1", "Basics", "l1", nil, 30, 10.0, 2, now, now, 3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM quiz_questions WHERE quiz_id = ANY($1) ORDER BY quiz_id, position")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "position", "question", "options", "correct_answer"}).
			AddRow("qq1", "q1", 0, "Q1", "{A,B}", "A"))

	quiz, err := repo.FindByID(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, 3, quiz.AttemptCount)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, []string{"A", "B"}, []string(quiz.Questions[0].Options))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryCountAttempts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1 AND student_id = $2")).
		WithArgs("q1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountAttempts(context.Background(), "q1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
