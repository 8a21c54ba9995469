package trend

import (
	"math"
	"sort"
	"time"
)

// Ranking coefficients. They are fixed so scores stay comparable over time.
const (
	recentWeight   = 2.0
	totalWeight    = 0.5
	recencyWeight  = 10.0
	followerWeight = 0.3

	// recencyDays is how long an update keeps earning a bonus.
	recencyDays = 30

	// DefaultLimit is the number of projects returned when no limit is given.
	DefaultLimit = 6
)

// Signals are the activity figures a project is ranked on.
type Signals struct {
	RecentResponses int       `json:"recent_responses"`
	TotalResponses  int       `json:"total_responses"`
	UpdatedAt       time.Time `json:"updated_at"`
	FollowerCount   int       `json:"follower_count"`
}

// Candidate is a project competing for a trending slot.
type Candidate struct {
	ID string
	Signals
}

// Ranked is a candidate with its computed score.
type Ranked struct {
	Candidate
	Score float64
}

// RecencyBonus decays linearly from 1 for a project updated today to 0 for
// one last updated recencyDays or more ago.
func RecencyBonus(updatedAt, now time.Time) float64 {
	days := math.Floor(now.Sub(updatedAt).Hours() / 24)
	return math.Max(0, recencyDays-days) / recencyDays
}

// Score computes the trending score of a project at now.
func Score(s Signals, now time.Time) float64 {
	return float64(s.RecentResponses)*recentWeight +
		float64(s.TotalResponses)*totalWeight +
		RecencyBonus(s.UpdatedAt, now)*recencyWeight +
		float64(s.FollowerCount)*followerWeight
}

// Rank scores every candidate and returns the best topN, highest first.
// Equal scores keep their input order. A non-positive topN means
// DefaultLimit.
func Rank(candidates []Candidate, topN int, now time.Time) []Ranked {
	if topN <= 0 {
		topN = DefaultLimit
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Candidate: c, Score: Score(c.Signals, now)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
