package models

import (
	"time"

	"github.com/lib/pq"
)

// StudentStatus is the enrolment state of a learner.
type StudentStatus string

const (
	StudentStatusOngoing   StudentStatus = "Ongoing"
	StudentStatusCompleted StudentStatus = "Completed"
)

// Student is a learner tracked by the portal. AttendancePercentage is a cached
// value refreshed by attendance sync, not recomputed on read.
type Student struct {
	ID                   string         `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	EnrollmentID         string         `db:"enrollment_id" json:"enrollmentId"`
	Email                string         `db:"email" json:"email"`
	Phone                string         `db:"phone" json:"phone"`
	GitHub               string         `db:"github" json:"github"`
	LinkedIn             string         `db:"linkedin" json:"linkedin"`
	ProfileImage         string         `db:"profile_image" json:"profileImage"`
	Course               string         `db:"course" json:"course"`
	Status               StudentStatus  `db:"status" json:"status"`
	Modules              pq.StringArray `db:"modules" json:"modules"`
	AttendancePercentage float64        `db:"attendance_percentage" json:"attendancePercentage"`
	SkillsAcquired       pq.StringArray `db:"skills_acquired" json:"skillsAcquired"`
	LearningStreak       int            `db:"learning_streak" json:"learningStreak"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updatedAt"`
}

// StudentFilter holds the list query. Text fields match case-insensitive substrings.
type StudentFilter struct {
	Name         string
	EnrollmentID string
	Email        string
	Course       string
	Status       string
	BatchID      string
	Page         int
	PageSize     int
}

// StudentDetail is the profile view with the student's activity.
type StudentDetail struct {
	Student               Student                  `json:"student"`
	AttendanceRecords     []StudentAttendanceEntry `json:"attendanceRecords"`
	AssignmentSubmissions []StudentSubmission      `json:"assignmentSubmissions"`
	QuizAttempts          []StudentQuizAttempt     `json:"quizAttempts"`
	ProgressPercentage    int                      `json:"progressPercentage"`
}

// StudentSubmission is a submission joined with its assignment.
type StudentSubmission struct {
	AssignmentID    string           `db:"assignment_id" json:"assignmentId"`
	AssignmentTitle string           `db:"assignment_title" json:"assignmentTitle"`
	MaxMarks        float64          `db:"max_marks" json:"maxMarks"`
	Deadline        time.Time        `db:"deadline" json:"deadline"`
	Status          SubmissionStatus `db:"status" json:"status"`
	Marks           *float64         `db:"marks" json:"marks,omitempty"`
	Feedback        *string          `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt     *time.Time       `db:"submitted_at" json:"submittedAt,omitempty"`
}

// StudentQuizAttempt is an attempt joined with its quiz.
type StudentQuizAttempt struct {
	QuizID     string    `db:"quiz_id" json:"quizId"`
	QuizTitle  string    `db:"quiz_title" json:"quizTitle"`
	TotalMarks float64   `db:"total_marks" json:"totalMarks"`
	Score      float64   `db:"score" json:"score"`
	AttemptAt  time.Time `db:"attempted_at" json:"attemptedAt"`
}

// StudentReport is the downloadable record of a student.
type StudentReport struct {
	Student               Student                  `json:"student"`
	WeeklySnapshots       []WeeklySnapshot         `json:"weeklySnapshots"`
	AssignmentSubmissions []StudentSubmission      `json:"assignmentSubmissions"`
	QuizAttempts          []StudentQuizAttempt     `json:"quizAttempts"`
	AttendanceRecords     []StudentAttendanceEntry `json:"attendanceRecords"`
	GeneratedAt           time.Time                `json:"generatedAt"`
}
