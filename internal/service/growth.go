package service

import (
	"math"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

const (
	trendThreshold      = 2.0
	excellentThreshold  = 80.0
	attentionThreshold  = 50.0
	stableSpread        = 5.0
	growthHistoryWindow = 3
)

// ClassifyTrend labels a week-over-week OGI change.
func ClassifyTrend(diff float64) models.Trend {
	switch {
	case diff > trendThreshold:
		return models.TrendImprovement
	case diff < -trendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStagnation
	}
}

// AnnotateTrends expects snapshots in ascending week order. The first entry is
// compared against itself.
func AnnotateTrends(snapshots []models.WeeklySnapshot) []models.SnapshotWithTrend {
	out := make([]models.SnapshotWithTrend, 0, len(snapshots))
	for i, s := range snapshots {
		prev := s.OGI
		if i > 0 {
			prev = snapshots[i-1].OGI
		}
		diff := s.OGI - prev
		out = append(out, models.SnapshotWithTrend{
			WeeklySnapshot: s,
			OGIChange:      round2(diff),
			Trend:          ClassifyTrend(diff),
		})
	}
	return out
}

// ClassifyGrowth takes an ascending OGI history; the last value is current.
// An empty history counts as an OGI of 0. Mixed movement with a spread of 5 or
// more falls through to Stable.
func ClassifyGrowth(history []float64) models.GrowthClass {
	current := 0.0
	if len(history) > 0 {
		current = history[len(history)-1]
	}

	switch {
	case current >= excellentThreshold:
		return models.GrowthExcellent
	case current < attentionThreshold:
		return models.GrowthNeedsAttention
	case len(history) < growthHistoryWindow:
		return models.GrowthStable
	}

	last := history[len(history)-growthHistoryWindow:]
	a, b, c := last[0], last[1], last[2]
	switch {
	case c < a && c < b:
		return models.GrowthNeedsAttention
	case c > a && c > b:
		return models.GrowthImproving
	case math.Abs(c-a) < stableSpread:
		return models.GrowthStable
	}
	return models.GrowthStable
}

// ogiHistory extracts the OGI column of ascending snapshots.
func ogiHistory(snapshots []models.WeeklySnapshot) []float64 {
	out := make([]float64, len(snapshots))
	for i, s := range snapshots {
		out[i] = s.OGI
	}
	return out
}

func currentOGI(snapshots []models.WeeklySnapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	return snapshots[len(snapshots)-1].OGI
}
