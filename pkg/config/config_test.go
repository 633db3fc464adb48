package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCourseModules(t *testing.T) {
	modules := parseCourseModules("Web Development=5, DSA = 5,Python=3,broken,Zero=0,Bad=x")
	assert.Equal(t, map[string]int{"Web Development": 5, "DSA": 5, "Python": 3}, modules)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 10*time.Minute, parseDuration("10m", time.Minute))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SNAPSHOT_STORE", "MONGO")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, SnapshotStoreMongo, cfg.Snapshots.Store)
	assert.Equal(t, WeekStrategySequence, cfg.Snapshots.WeekStrategy)
	assert.Equal(t, 10*time.Minute, cfg.Attendance.EditWindow)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.InDelta(t, 1.0, cfg.Growth.QuizWeight+cfg.Growth.AssignmentWeight+cfg.Growth.AttendanceWeight+cfg.Growth.CompletionWeight+cfg.Growth.ConsistencyWeight, 1e-9)
	assert.Equal(t, 3, cfg.Growth.CourseModules["Python"])
	assert.Equal(t, 5, cfg.Growth.DefaultModuleCount)
}
