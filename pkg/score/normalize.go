// Package score reduces raw survey answers into normalized stat and
// category scores.
package score

import "math"

// Normalize maps value within [minValue, maxValue] onto a 0-100 percentage.
// A degenerate range (max <= min) carries no signal and yields 0.
func Normalize(value, minValue, maxValue float64) float64 {
	span := maxValue - minValue
	if span <= 0 {
		return 0
	}
	return (value - minValue) / span * 100
}

// Round rounds half up, so 2.5 becomes 3 and -2.5 becomes -2.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundTenth rounds x to one decimal place using Round.
func RoundTenth(x float64) float64 {
	return Round(x*10) / 10
}
