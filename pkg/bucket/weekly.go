package bucket

import (
	"sort"
	"time"
)

// DefaultWeeks is the number of weeks kept when no limit is given.
const DefaultWeeks = 12

// Weekly is the calendar-week strategy. Weeks start on Sunday and only weeks
// with at least one event are present.
type Weekly struct {
	Limit int
}

// Bucket implements Strategy.
func (w Weekly) Bucket(timestamps []time.Time) Series {
	return WeeklyBuckets(timestamps, w.Limit)
}

// WeekStart returns the Sunday, at midnight UTC, of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := day(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeeklyBuckets counts timestamps per calendar week and keeps the most recent
// limit weeks in ascending order. Weeks without events are not filled in.
// A non-positive limit means DefaultWeeks.
func WeeklyBuckets(timestamps []time.Time, limit int) Series {
	if limit <= 0 {
		limit = DefaultWeeks
	}

	counts := make(map[time.Time]int)
	for _, ts := range timestamps {
		counts[WeekStart(ts)]++
	}

	series := make(Series, 0, len(counts))
	for start, n := range counts {
		series = append(series, Point{Start: start, Date: start.Format(DateLayout), Count: n})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Start.Before(series[j].Start)
	})

	return series.Tail(limit)
}
