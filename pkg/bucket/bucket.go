// Package bucket turns timestamps into ordered count series.
//
// Two strategies exist: a zero-filled rolling window of days and a sparse,
// capped list of calendar weeks. Both take the timestamps by value and never
// modify them.
package bucket

import "time"

// DateLayout is the label format of every bucket.
const DateLayout = "2006-01-02"

// Point is one bucket of a series.
type Point struct {
	Start time.Time `json:"-"`
	Date  string    `json:"date"`
	Count int       `json:"count"`
}

// Series is a list of points ordered oldest first.
type Series []Point

// Strategy produces an ordered count series from a set of timestamps.
type Strategy interface {
	Bucket(timestamps []time.Time) Series
}

// Total sums the counts of every point.
func (s Series) Total() int {
	total := 0
	for _, p := range s {
		total += p.Count
	}
	return total
}

// Head returns the first n points, or the whole series when it is shorter.
func (s Series) Head(n int) Series {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	return s[:n]
}

// Tail returns the last n points, or the whole series when it is shorter.
func (s Series) Tail(n int) Series {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	return s[len(s)-n:]
}

// day truncates t to midnight UTC.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
