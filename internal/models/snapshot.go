package models

import "time"

// Trend labels week-over-week OGI movement.
type Trend string

const (
	TrendImprovement Trend = "improvement"
	TrendDeclining   Trend = "declining"
	TrendStagnation  Trend = "stagnation"
)

// GrowthClass is the coarse trajectory label for a student.
type GrowthClass string

const (
	GrowthExcellent      GrowthClass = "Excellent"
	GrowthImproving      GrowthClass = "Improving"
	GrowthStable         GrowthClass = "Stable"
	GrowthNeedsAttention GrowthClass = "Needs Attention"
)

// WeeklySnapshot is the immutable per-student record for one generation run.
type WeeklySnapshot struct {
	ID                    string    `db:"id" json:"id" bson:"_id"`
	StudentID             string    `db:"student_id" json:"studentId" bson:"studentId"`
	WeekNumber            int       `db:"week_number" json:"weekNumber" bson:"weekNumber"`
	WeekStart             time.Time `db:"week_start" json:"weekStart" bson:"weekStart"`
	WeekEnd               time.Time `db:"week_end" json:"weekEnd" bson:"weekEnd"`
	QuizAverage           float64   `db:"quiz_average" json:"quizAverage" bson:"quizAverage"`
	AssignmentAverage     float64   `db:"assignment_average" json:"assignmentAverage" bson:"assignmentAverage"`
	AttendancePercentage  float64   `db:"attendance_percentage" json:"attendancePercentage" bson:"attendancePercentage"`
	CompletionRate        float64   `db:"completion_rate" json:"completionRate" bson:"completionRate"`
	SubmissionConsistency float64   `db:"submission_consistency" json:"submissionConsistency" bson:"submissionConsistency"`
	OGI                   float64   `db:"ogi" json:"OGI" bson:"OGI"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt" bson:"createdAt"`
}

// SnapshotWithTrend annotates a snapshot with its change from the previous week.
type SnapshotWithTrend struct {
	WeeklySnapshot
	OGIChange float64 `json:"ogiChange"`
	Trend     Trend   `json:"trend"`
}

// SnapshotGenerationResult summarises one generation run.
type SnapshotGenerationResult struct {
	Message    string `json:"message"`
	Count      int    `json:"count"`
	WeekNumber int    `json:"weekNumber"`
}
