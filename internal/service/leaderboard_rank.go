package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

// Leaderboard sort keys.
const (
	SortByOGI             = "OGI"
	SortByAttendance      = "attendance"
	SortByAssignmentScore = "assignmentScore"
)

// NormalizeSortKey maps unknown keys to OGI.
func NormalizeSortKey(sortBy string) string {
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case strings.ToLower(SortByAttendance):
		return SortByAttendance
	case strings.ToLower(SortByAssignmentScore):
		return SortByAssignmentScore
	default:
		return SortByOGI
	}
}

// RankEntries sorts descending by the chosen key, keeping input order among
// ties, and assigns ranks 1..n by position.
func RankEntries(entries []models.LeaderboardEntry, sortBy string) []models.LeaderboardEntry {
	key := sortValue(NormalizeSortKey(sortBy))
	ranked := make([]models.LeaderboardEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return key(ranked[i]) > key(ranked[j])
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func sortValue(key string) func(models.LeaderboardEntry) float64 {
	switch key {
	case SortByAttendance:
		return func(e models.LeaderboardEntry) float64 { return e.AttendancePercentage }
	case SortByAssignmentScore:
		return func(e models.LeaderboardEntry) float64 { return e.AssignmentScore }
	default:
		return func(e models.LeaderboardEntry) float64 { return e.OGI }
	}
}
