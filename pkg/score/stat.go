package score

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrUnknownStat is returned when an answer references a stat outside the
// set being aggregated.
var ErrUnknownStat = errors.New("answer references unknown stat")

// Stat is a bounded attribute respondents rate.
type Stat struct {
	ID       string
	Name     string
	Category string
	Min      float64
	Max      float64
	Weight   float64
}

// Answer is one respondent's rating for one stat.
type Answer struct {
	StatID string
	Value  float64
}

// StatAggregate summarizes every answer given for one stat.
type StatAggregate struct {
	StatID            string  `json:"stat_id"`
	Name              string  `json:"name"`
	Category          string  `json:"category,omitempty"`
	Weight            float64 `json:"weight"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Count             int     `json:"count"`
	RawAverage        float64 `json:"raw_average"`
	NormalizedAverage float64 `json:"normalized_average"`
}

// Scored reports whether the stat has at least one answer.
func (a StatAggregate) Scored() bool {
	return a.Count > 0
}

// Percent is the normalized average rounded for display.
func (a StatAggregate) Percent() int {
	return int(Round(a.NormalizedAverage))
}

// AggregateStat reduces the raw values given for s.
//
// The mean of the raw values is rounded to one decimal and normalized once;
// it is never the mean of per-answer percentages. Any non-linear replacement
// for Normalize has to keep normalize(mean(x)) equal to mean(normalize(x)).
func AggregateStat(s Stat, values []float64) StatAggregate {
	agg := StatAggregate{
		StatID:   s.ID,
		Name:     s.Name,
		Category: s.Category,
		Weight:   s.Weight,
		Min:      s.Min,
		Max:      s.Max,
		Count:    len(values),
	}
	if agg.Count == 0 {
		return agg
	}
	agg.RawAverage = RoundTenth(stat.Mean(values, nil))
	agg.NormalizedAverage = Normalize(agg.RawAverage, s.Min, s.Max)
	return agg
}

// AggregateStats groups answers by stat and aggregates each one. The result
// follows the order of stats and includes stats without answers.
func AggregateStats(stats []Stat, answers []Answer) ([]StatAggregate, error) {
	values := make(map[string][]float64, len(stats))
	for _, s := range stats {
		values[s.ID] = nil
	}
	for _, a := range answers {
		if _, ok := values[a.StatID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStat, a.StatID)
		}
		values[a.StatID] = append(values[a.StatID], a.Value)
	}

	aggs := make([]StatAggregate, 0, len(stats))
	for _, s := range stats {
		aggs = append(aggs, AggregateStat(s, values[s.ID]))
	}
	return aggs, nil
}

// ScoredOnly drops aggregates that have no answers.
func ScoredOnly(aggs []StatAggregate) []StatAggregate {
	out := make([]StatAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.Scored() {
			out = append(out, a)
		}
	}
	return out
}
