package service

import "github.com/noah-isme/academic-portal-api/internal/models"

const defaultModuleCount = 5

// ModuleCatalog maps a course name to the number of modules it contains.
type ModuleCatalog struct {
	counts   map[string]int
	fallback int
}

// NewModuleCatalog builds a catalogue. Courses not listed use fallback.
func NewModuleCatalog(counts map[string]int, fallback int) ModuleCatalog {
	if fallback <= 0 {
		fallback = defaultModuleCount
	}
	normalized := make(map[string]int, len(counts))
	for course, n := range counts {
		if n > 0 {
			normalized[course] = n
		}
	}
	return ModuleCatalog{counts: normalized, fallback: fallback}
}

// DefaultModuleCatalog is the stock course list.
func DefaultModuleCatalog() ModuleCatalog {
	return NewModuleCatalog(map[string]int{"Web Development": 5, "DSA": 5, "Python": 3}, defaultModuleCount)
}

// MaxModules returns the module count for course.
func (c ModuleCatalog) MaxModules(course string) int {
	if n, ok := c.counts[course]; ok {
		return n
	}
	if c.fallback <= 0 {
		return defaultModuleCount
	}
	return c.fallback
}

// CompletionRate is completed/max*100 rounded to an integer.
func (c ModuleCatalog) CompletionRate(course string, completed int) float64 {
	return percent(float64(completed), float64(c.MaxModules(course)))
}

// QuizAverage averages score/totalMarks across attempts. Every attempt counts
// equally; a quiz with no marks contributes zero.
func QuizAverage(attempts []models.AttemptScore) float64 {
	if len(attempts) == 0 {
		return 0
	}
	var total float64
	for _, a := range attempts {
		if a.TotalMarks > 0 {
			total += a.Score / a.TotalMarks * 100
		}
	}
	return roundHalfUp(total / float64(len(attempts)))
}

// AssignmentAverage averages marks/maxMarks over Evaluated submissions only.
func AssignmentAverage(subs []models.SubmissionScore) float64 {
	var total float64
	var evaluated int
	for _, s := range subs {
		if s.Status != models.SubmissionEvaluated {
			continue
		}
		evaluated++
		if s.Marks != nil && s.MaxMarks > 0 {
			total += *s.Marks / s.MaxMarks * 100
		}
	}
	if evaluated == 0 {
		return 0
	}
	return roundHalfUp(total / float64(evaluated))
}

// SubmissionConsistency is the share of Submitted or Evaluated submissions.
// Late submissions do not count as consistent.
func SubmissionConsistency(subs []models.SubmissionScore) float64 {
	var onTime int
	for _, s := range subs {
		if s.Status == models.SubmissionSubmitted || s.Status == models.SubmissionEvaluated {
			onTime++
		}
	}
	return percent(float64(onTime), float64(len(subs)))
}

// AttendanceRate is present/total*100 rounded, or 0 without records.
func AttendanceRate(present, total int) float64 {
	return percent(float64(present), float64(total))
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return roundHalfUp(part / whole * 100)
}

// MetricAggregator turns raw activity into the index inputs for one student.
type MetricAggregator struct {
	catalog ModuleCatalog
}

// NewMetricAggregator builds an aggregator over catalog.
func NewMetricAggregator(catalog ModuleCatalog) *MetricAggregator {
	return &MetricAggregator{catalog: catalog}
}

// Catalog exposes the module catalogue.
func (a *MetricAggregator) Catalog() ModuleCatalog {
	return a.catalog
}

// StudentMetrics uses the student's cached attendance percentage rather than
// recomputing it from attendance sheets.
func (a *MetricAggregator) StudentMetrics(student models.Student, attempts []models.AttemptScore, subs []models.SubmissionScore) MetricSet {
	return MetricSet{
		QuizAverage:           QuizAverage(attempts),
		AssignmentAverage:     AssignmentAverage(subs),
		AttendancePercentage:  student.AttendancePercentage,
		CompletionRate:        a.catalog.CompletionRate(student.Course, len(student.Modules)),
		SubmissionConsistency: SubmissionConsistency(subs),
	}
}

// ClassMetrics are population-level averages.
type ClassMetrics struct {
	QuizAverage           float64
	AssignmentAverage     float64
	SubmissionConsistency float64
	CompletionRate        float64
}

// ClassMetrics averages across everyone. Completion is the mean of unrounded
// per-student rates, rounded once.
func (a *MetricAggregator) ClassMetrics(students []models.Student, attempts []models.AttemptScore, subs []models.SubmissionScore) ClassMetrics {
	var completion float64
	for _, s := range students {
		completion += float64(len(s.Modules)) / float64(a.catalog.MaxModules(s.Course)) * 100
	}
	rate := 0.0
	if len(students) > 0 {
		rate = roundHalfUp(completion / float64(len(students)))
	}
	return ClassMetrics{
		QuizAverage:           QuizAverage(attempts),
		AssignmentAverage:     AssignmentAverage(subs),
		SubmissionConsistency: SubmissionConsistency(subs),
		CompletionRate:        rate,
	}
}

// groupAttempts indexes attempts by student id.
func groupAttempts(attempts []models.AttemptScore) map[string][]models.AttemptScore {
	out := make(map[string][]models.AttemptScore)
	for _, a := range attempts {
		out[a.StudentID] = append(out[a.StudentID], a)
	}
	return out
}

// groupSubmissions indexes submissions by student id.
func groupSubmissions(subs []models.SubmissionScore) map[string][]models.SubmissionScore {
	out := make(map[string][]models.SubmissionScore)
	for _, s := range subs {
		out[s.StudentID] = append(out[s.StudentID], s)
	}
	return out
}

func studentIDs(students []models.Student) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}
