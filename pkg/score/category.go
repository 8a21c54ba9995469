package score

// Uncategorized labels the bucket for stats without a category.
const Uncategorized = "Uncategorized"

// CategoryAggregate is the composite score of the stats sharing a category.
type CategoryAggregate struct {
	Category  string `json:"category"`
	Score     int    `json:"score"`
	StatCount int    `json:"stat_count"`
}

// ComposeCategories groups scored stats by category in order of first
// appearance. Each category score is the sum of normalizedAverage*weight
// divided by the number of stats in the category, rounded.
//
// The divisor is the stat count, not the weight sum, so mixed weights do not
// produce a true weighted average. Historical scores depend on this formula.
func ComposeCategories(aggs []StatAggregate) []CategoryAggregate {
	type acc struct {
		sum   float64
		count int
	}

	var order []string
	groups := make(map[string]*acc)
	for _, a := range aggs {
		if !a.Scored() {
			continue
		}
		name := a.Category
		if name == "" {
			name = Uncategorized
		}
		g, ok := groups[name]
		if !ok {
			g = &acc{}
			groups[name] = g
			order = append(order, name)
		}
		g.sum += a.NormalizedAverage * a.Weight
		g.count++
	}

	out := make([]CategoryAggregate, 0, len(order))
	for _, name := range order {
		g := groups[name]
		out = append(out, CategoryAggregate{
			Category:  name,
			Score:     int(Round(g.sum / float64(g.count))),
			StatCount: g.count,
		})
	}
	return out
}
