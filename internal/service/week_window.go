package service

import (
	"time"

	"github.com/noah-isme/academic-portal-api/pkg/config"
)

const heatmapDays = 30

// weekEpoch is the first Sunday on or after the Unix epoch.
var weekEpoch = time.Date(1970, time.January, 4, 0, 0, 0, 0, time.UTC)

// WeekWindow is a Sunday-to-Saturday span in local time.
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// WeekWindowFor returns the week containing now; Start is Sunday at midnight
// and End is six days later at midnight.
func WeekWindowFor(now time.Time) WeekWindow {
	day := startOfDay(now)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return WeekWindow{Start: start, End: start.AddDate(0, 0, 6)}
}

// CalendarWeekNumber counts Sunday-aligned weeks since the epoch, starting at 1.
func CalendarWeekNumber(now time.Time) int {
	start := WeekWindowFor(now).Start
	y, m, d := start.Date()
	days := int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Sub(weekEpoch).Hours() / 24)
	return days/7 + 1
}

// nextWeekNumber picks the week number for a generation run.
func nextWeekNumber(strategy string, currentMax int, now time.Time) int {
	if strategy == config.WeekStrategyCalendar {
		return CalendarWeekNumber(now)
	}
	return currentMax + 1
}

// trailingDays returns n local midnights ending with today, oldest first.
func trailingDays(now time.Time, n int) []time.Time {
	today := startOfDay(now)
	days := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EditWindow decides whether an attendance sheet can still be changed.
type EditWindow struct {
	duration time.Duration
}

// NewEditWindow defaults to ten minutes.
func NewEditWindow(d time.Duration) EditWindow {
	if d <= 0 {
		d = 10 * time.Minute
	}
	return EditWindow{duration: d}
}

// Editable is true strictly before submittedAt + duration.
func (w EditWindow) Editable(submittedAt, now time.Time) bool {
	return now.Sub(submittedAt) < w.duration
}
