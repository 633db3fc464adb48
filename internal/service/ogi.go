package service

import (
	"math"

	"github.com/noah-isme/academic-portal-api/pkg/config"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

const weightTolerance = 1e-9

// OGIWeights are the coefficients of the Overall Growth Index. They must sum to 1.
type OGIWeights struct {
	Quiz        float64
	Assignment  float64
	Attendance  float64
	Completion  float64
	Consistency float64
}

// DefaultOGIWeights returns the standard 25/25/25/15/10 split.
func DefaultOGIWeights() OGIWeights {
	return OGIWeights{Quiz: 0.25, Assignment: 0.25, Attendance: 0.25, Completion: 0.15, Consistency: 0.10}
}

// WeightsFromConfig maps the growth config onto OGIWeights.
func WeightsFromConfig(cfg config.GrowthConfig) OGIWeights {
	return OGIWeights{
		Quiz:        cfg.QuizWeight,
		Assignment:  cfg.AssignmentWeight,
		Attendance:  cfg.AttendanceWeight,
		Completion:  cfg.CompletionWeight,
		Consistency: cfg.ConsistencyWeight,
	}
}

// Validate rejects negative weights and sets that do not sum to 1.
func (w OGIWeights) Validate() error {
	for _, v := range []float64{w.Quiz, w.Assignment, w.Attendance, w.Completion, w.Consistency} {
		if v < 0 || math.IsNaN(v) {
			return appErrors.ErrInvalidWeights
		}
	}
	if math.Abs(w.Quiz+w.Assignment+w.Attendance+w.Completion+w.Consistency-1) > weightTolerance {
		return appErrors.ErrInvalidWeights
	}
	return nil
}

// MetricSet holds the five percentage inputs of the index. Values are not clamped.
type MetricSet struct {
	QuizAverage           float64
	AssignmentAverage     float64
	AttendancePercentage  float64
	CompletionRate        float64
	SubmissionConsistency float64
}

// OGICalculator applies a validated weight set.
type OGICalculator struct {
	weights OGIWeights
}

// NewOGICalculator validates weights before building the calculator.
func NewOGICalculator(weights OGIWeights) (*OGICalculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &OGICalculator{weights: weights}, nil
}

// Compute returns the weighted index rounded to two decimals.
func (c *OGICalculator) Compute(m MetricSet) float64 {
	w := c.weights
	raw := m.QuizAverage*w.Quiz +
		m.AssignmentAverage*w.Assignment +
		m.AttendancePercentage*w.Attendance +
		m.CompletionRate*w.Completion +
		m.SubmissionConsistency*w.Consistency
	return round2(raw)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundHalfUp rounds .5 towards positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
