package models

import (
	"time"

	"github.com/lib/pq"
)

// SubmissionStatus tracks a student's submission for an assignment.
type SubmissionStatus string

const (
	SubmissionNotSubmitted  SubmissionStatus = "NotSubmitted"
	SubmissionSubmitted     SubmissionStatus = "Submitted"
	SubmissionLateSubmitted SubmissionStatus = "LateSubmitted"
	SubmissionEvaluated     SubmissionStatus = "Evaluated"
)

// AssignmentStatus marks whether an assignment still accepts work.
type AssignmentStatus string

const (
	AssignmentActive AssignmentStatus = "Active"
	AssignmentClosed AssignmentStatus = "Closed"
)

// Assignment is graded coursework with per-student submissions.
type Assignment struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Description    string           `db:"description" json:"description"`
	LessonID       string           `db:"lesson_id" json:"lessonId"`
	BatchID        *string          `db:"batch_id" json:"batchId,omitempty"`
	Deadline       time.Time        `db:"deadline" json:"deadline"`
	MaxMarks       float64          `db:"max_marks" json:"maxMarks"`
	SubmissionType string           `db:"submission_type" json:"submissionType"`
	Status         AssignmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
	Submissions    []Submission     `db:"-" json:"submissions"`
}

// Submission is one student's work for an assignment. Marks only carry meaning once Evaluated.
type Submission struct {
	ID           string           `db:"id" json:"id"`
	AssignmentID string           `db:"assignment_id" json:"assignmentId"`
	StudentID    string           `db:"student_id" json:"studentId"`
	Status       SubmissionStatus `db:"status" json:"status"`
	FileURL      *string          `db:"file_url" json:"fileUrl,omitempty"`
	Marks        *float64         `db:"marks" json:"marks,omitempty"`
	Feedback     *string          `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt  *time.Time       `db:"submitted_at" json:"submittedAt,omitempty"`
}

// SubmissionScore is the aggregation view of a submission.
type SubmissionScore struct {
	StudentID string           `db:"student_id"`
	Status    SubmissionStatus `db:"status"`
	Marks     *float64         `db:"marks"`
	MaxMarks  float64          `db:"max_marks"`
}

// UpcomingDeadline is a dashboard projection of an assignment due soon.
type UpcomingDeadline struct {
	ID       string    `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Deadline time.Time `db:"deadline" json:"deadline"`
	MaxMarks float64   `db:"max_marks" json:"maxMarks"`
}

// Quiz is a timed assessment with a per-student attempt limit.
type Quiz struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	LessonID     string         `db:"lesson_id" json:"lessonId"`
	BatchID      *string        `db:"batch_id" json:"batchId,omitempty"`
	Duration     int            `db:"duration" json:"duration"`
	TotalMarks   float64        `db:"total_marks" json:"totalMarks"`
	AttemptLimit int            `db:"attempt_limit" json:"attemptLimit"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
	Questions    []QuizQuestion `db:"-" json:"questions"`
	AttemptCount int            `db:"attempt_count" json:"attemptCount"`
}

// QuizQuestion is a multiple choice question.
type QuizQuestion struct {
	ID            string         `db:"id" json:"id"`
	QuizID        string         `db:"quiz_id" json:"-"`
	Position      int            `db:"position" json:"-"`
	Question      string         `db:"question" json:"question"`
	Options       pq.StringArray `db:"options" json:"options"`
	CorrectAnswer string         `db:"correct_answer" json:"correctAnswer"`
}

// QuizAttempt is one scored attempt by a student.
type QuizAttempt struct {
	ID           string    `db:"id" json:"id"`
	QuizID       string    `db:"quiz_id" json:"quizId"`
	StudentID    string    `db:"student_id" json:"studentId"`
	StudentName  string    `db:"student_name" json:"studentName,omitempty"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollmentId,omitempty"`
	Score        float64   `db:"score" json:"score"`
	AttemptedAt  time.Time `db:"attempted_at" json:"attemptedAt"`
}

// AttemptScore is the aggregation view of a quiz attempt.
type AttemptScore struct {
	StudentID  string  `db:"student_id"`
	Score      float64 `db:"score"`
	TotalMarks float64 `db:"total_marks"`
}
