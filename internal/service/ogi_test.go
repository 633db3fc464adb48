package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

func TestOGICalculatorBounds(t *testing.T) {
	calc, err := NewOGICalculator(DefaultOGIWeights())
	require.NoError(t, err)

	assert.Equal(t, 0.0, calc.Compute(MetricSet{}))
	assert.Equal(t, 100.0, calc.Compute(MetricSet{100, 100, 100, 100, 100}))
}

func TestOGICalculatorWeightedSum(t *testing.T) {
	calc, err := NewOGICalculator(DefaultOGIWeights())
	require.NoError(t, err)

	got := calc.Compute(MetricSet{
		QuizAverage:           80,
		AssignmentAverage:     70,
		AttendancePercentage:  90,
		CompletionRate:        67,
		SubmissionConsistency: 33,
	})
	// 20 + 17.5 + 22.5 + 10.05 + 3.3
	assert.InDelta(t, 73.35, got, 1e-9)
}

func TestOGICalculatorIsNotClamped(t *testing.T) {
	calc, err := NewOGICalculator(DefaultOGIWeights())
	require.NoError(t, err)
	assert.Equal(t, 120.0, calc.Compute(MetricSet{120, 120, 120, 120, 120}))
}

func TestOGIWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultOGIWeights().Validate())

	cases := map[string]OGIWeights{
		"sum above one": {Quiz: 0.3, Assignment: 0.25, Attendance: 0.25, Completion: 0.15, Consistency: 0.10},
		"negative":      {Quiz: -0.25, Assignment: 0.75, Attendance: 0.25, Completion: 0.15, Consistency: 0.10},
		"zero":          {},
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			err := w.Validate()
			assert.True(t, appErrors.Is(err, appErrors.ErrInvalidWeights))
			_, err = NewOGICalculator(w)
			assert.Error(t, err)
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 67.0, roundHalfUp(66.666))
	assert.Equal(t, 3.0, roundHalfUp(2.5))
	assert.Equal(t, -2.0, roundHalfUp(-2.5))
}
