package bucket

import "time"

// Daily is the rolling window strategy: Days buckets ending on the UTC date
// of Now, every day present even when empty.
type Daily struct {
	Days int
	Now  time.Time
}

// Bucket implements Strategy.
func (d Daily) Bucket(timestamps []time.Time) Series {
	return DailyWindow(timestamps, d.Days, d.Now)
}

// DailyWindow counts timestamps per UTC date over the windowDays days ending
// on now, inclusive. Every day in the window is present, oldest first, and
// timestamps outside the window are ignored. A non-positive window yields an
// empty series.
func DailyWindow(timestamps []time.Time, windowDays int, now time.Time) Series {
	if windowDays <= 0 {
		return Series{}
	}

	first := day(now).AddDate(0, 0, -(windowDays - 1))
	series := make(Series, windowDays)
	index := make(map[string]int, windowDays)
	for i := range series {
		start := first.AddDate(0, 0, i)
		series[i] = Point{Start: start, Date: start.Format(DateLayout)}
		index[series[i].Date] = i
	}

	for _, ts := range timestamps {
		if i, ok := index[ts.UTC().Format(DateLayout)]; ok {
			series[i].Count++
		}
	}
	return series
}
