package models

import "time"

// ClassAnalytics is the population-level analytics view.
type ClassAnalytics struct {
	AverageQuizScore       int                    `json:"averageQuizScore"`
	AverageAssignmentScore int                    `json:"averageAssignmentScore"`
	SubmissionConsistency  int                    `json:"submissionConsistency"`
	ModuleCompletionRate   int                    `json:"moduleCompletionRate"`
	OverallClassOGI        int                    `json:"overallClassOGI"`
	ModuleWiseAttendance   []BatchAttendance      `json:"moduleWiseAttendance"`
	WeeklyActivityTrend    []WeeklyActivity       `json:"weeklyActivityTrend"`
	AttendanceHeatmap      []AttendanceHeatmapDay `json:"attendanceHeatmap"`
}

// BatchAttendance is the attendance rate for one batch.
type BatchAttendance struct {
	BatchName            string `json:"batchName"`
	AttendancePercentage int    `json:"attendancePercentage"`
}

// WeeklyActivity approximates activity volume for a snapshot week.
type WeeklyActivity struct {
	Week                  string `json:"week"`
	QuizAttempts          int    `json:"quizAttempts"`
	AssignmentSubmissions int    `json:"assignmentSubmissions"`
}

// AttendanceHeatmapDay is one calendar day. Percentage is -1 when no class was held.
type AttendanceHeatmapDay struct {
	Date       string `json:"date"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	Late       int    `json:"late"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// MonitoringFilter narrows the per-student monitoring view.
type MonitoringFilter struct {
	Course  string
	BatchID string
	Growth  string
}

// StudentMonitoring is the per-student growth card.
type StudentMonitoring struct {
	StudentID                string           `json:"studentId"`
	Name                     string           `json:"name"`
	EnrollmentID             string           `json:"enrollmentId"`
	Course                   string           `json:"course"`
	CurrentOGI               float64          `json:"currentOGI"`
	OGITrend                 []OGIPoint       `json:"ogiTrend"`
	GrowthClassification     GrowthClass      `json:"growthClassification"`
	ModuleCompletionProgress ModuleCompletion `json:"moduleCompletionProgress"`
	WeeklyLearningHours      int              `json:"weeklyLearningHours"`
	SkillAcquisitionCount    int              `json:"skillAcquisitionCount"`
	LearningStreak           int              `json:"learningStreak"`
}

// OGIPoint is one entry of an OGI series.
type OGIPoint struct {
	Week int     `json:"week"`
	OGI  float64 `json:"OGI"`
}

// ModuleCompletion reports completed modules against the course catalogue.
type ModuleCompletion struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// LeaderboardFilter selects and orders leaderboard entries.
type LeaderboardFilter struct {
	Course  string
	BatchID string
	SortBy  string
}

// LeaderboardEntry is one ranked student.
type LeaderboardEntry struct {
	Rank                 int         `json:"rank"`
	StudentID            string      `json:"studentId"`
	Name                 string      `json:"name"`
	EnrollmentID         string      `json:"enrollmentId"`
	Course               string      `json:"course"`
	Batch                string      `json:"batch"`
	OGI                  float64     `json:"OGI"`
	AttendancePercentage float64     `json:"attendancePercentage"`
	AssignmentScore      float64     `json:"assignmentScore"`
	QuizScore            float64     `json:"quizScore"`
	GrowthClassification GrowthClass `json:"growthClassification"`
}

// LeaderboardUpdate is the response of a refresh: new snapshots plus the ranking.
type LeaderboardUpdate struct {
	Message     string             `json:"message"`
	Count       int                `json:"count"`
	WeekNumber  int                `json:"weekNumber"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// DashboardStats is the landing page summary.
type DashboardStats struct {
	TotalStudents           int                `json:"totalStudents"`
	ActiveCourses           int                `json:"activeCourses"`
	PendingAssignments      int                `json:"pendingAssignments"`
	UpcomingDeadlines       []UpcomingDeadline `json:"upcomingDeadlines"`
	AverageClassPerformance int                `json:"averageClassPerformance"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	SnapshotsGenerated       uint64    `json:"snapshotsGenerated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
