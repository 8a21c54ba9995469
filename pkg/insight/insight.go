// Package insight turns aggregated scores into short observations for
// project owners.
package insight

import (
	"fmt"
	"sort"

	"github.com/elonfeng/playsignal/pkg/bucket"
	"github.com/elonfeng/playsignal/pkg/score"
)

const (
	// categoryGap is the score difference above which two categories are
	// worth comparing.
	categoryGap = 15

	// weekDays is the length of the compared response periods.
	weekDays = 7

	growthRatio = 1.5
	dropRatio   = 0.5
)

// Generate returns up to four observations about a project, in a fixed
// order: best stat, weakest stat, category gap and response rate change.
// Stats without answers are ignored and daily holds response counts oldest
// first.
func Generate(stats []score.StatAggregate, categories []score.CategoryAggregate, daily bucket.Series) []string {
	out := []string{}
	out = append(out, statInsights(score.ScoredOnly(stats))...)
	if s, ok := categoryInsight(categories); ok {
		out = append(out, s)
	}
	if s, ok := responseRateInsight(daily); ok {
		out = append(out, s)
	}
	return out
}

func statInsights(stats []score.StatAggregate) []string {
	if len(stats) == 0 {
		return nil
	}

	type rated struct {
		name string
		pct  int
	}
	ratings := make([]rated, len(stats))
	for i, s := range stats {
		ratings[i] = rated{name: s.Name, pct: s.Percent()}
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].pct > ratings[j].pct
	})

	best := ratings[0]
	out := []string{fmt.Sprintf("\"%s\" is your highest rated stat at %d%%", best.name, best.pct)}

	worst := ratings[len(ratings)-1]
	if len(ratings) >= 2 && worst.pct < best.pct {
		out = append(out, fmt.Sprintf("\"%s\" needs attention - only %d%%", worst.name, worst.pct))
	}
	return out
}

func categoryInsight(categories []score.CategoryAggregate) (string, bool) {
	if len(categories) < 2 {
		return "", false
	}

	sorted := make([]score.CategoryAggregate, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	high, low := sorted[0], sorted[len(sorted)-1]
	diff := high.Score - low.Score
	if diff <= categoryGap {
		return "", false
	}
	return fmt.Sprintf("%s scores %d%% higher than %s", high.Category, diff, low.Category), true
}

// responseRateInsight compares the first and last weekDays buckets of the
// series. With the default 30 day window these are not adjacent weeks.
// Series shorter than two weeks would compare overlapping days and yield
// nothing.
func responseRateInsight(daily bucket.Series) (string, bool) {
	if len(daily) < 2*weekDays {
		return "", false
	}
	older := float64(daily.Head(weekDays).Total())
	recent := float64(daily.Tail(weekDays).Total())

	switch {
	case older > 0 && recent > older*growthRatio:
		pct := int(score.Round((recent/older - 1) * 100))
		return fmt.Sprintf("Response rate increased %d%% this week", pct), true
	case recent > 0 && recent < older*dropRatio:
		return "Response rate dropped - consider promoting your forms", true
	}
	return "", false
}
