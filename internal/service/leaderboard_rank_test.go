package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func TestRankEntries(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{StudentID: "a", OGI: 60, AttendancePercentage: 95, AssignmentScore: 70},
		{StudentID: "b", OGI: 85, AttendancePercentage: 70, AssignmentScore: 90},
		{StudentID: "c", OGI: 60, AttendancePercentage: 80, AssignmentScore: 90},
	}

	byOGI := RankEntries(entries, "")
	assert.Equal(t, []string{"b", "a", "c"}, ids(byOGI))
	assert.Equal(t, []int{1, 2, 3}, ranks(byOGI))

	byAttendance := RankEntries(entries, "attendance")
	assert.Equal(t, []string{"a", "c", "b"}, ids(byAttendance))
	assert.Equal(t, []int{1, 2, 3}, ranks(byAttendance))

	byAssignment := RankEntries(entries, "assignmentScore")
	assert.Equal(t, []string{"b", "c", "a"}, ids(byAssignment))

	assert.Equal(t, "a", entries[0].StudentID, "input is not reordered")
}

func TestNormalizeSortKey(t *testing.T) {
	assert.Equal(t, SortByOGI, NormalizeSortKey("bogus"))
	assert.Equal(t, SortByAttendance, NormalizeSortKey("Attendance"))
	assert.Equal(t, SortByAssignmentScore, NormalizeSortKey("assignmentscore"))
}

func ids(entries []models.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.StudentID
	}
	return out
}

func ranks(entries []models.LeaderboardEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}
