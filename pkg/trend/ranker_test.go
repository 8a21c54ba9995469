package trend

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)

func TestRecencyBonus(t *testing.T) {
	tests := []struct {
		name    string
		updated time.Time
		want    float64
	}{
		{name: "today", updated: now.Add(-2 * time.Hour), want: 1},
		{name: "just under a day", updated: now.Add(-23 * time.Hour), want: 1},
		{name: "three days", updated: now.Add(-3*24*time.Hour - time.Hour), want: 27.0 / 30},
		{name: "thirty days", updated: now.AddDate(0, 0, -30), want: 0},
		{name: "long ago", updated: now.AddDate(-1, 0, 0), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecencyBonus(tt.updated, now), 1e-9)
		})
	}
}

func TestScore(t *testing.T) {
	s := Signals{RecentResponses: 10, TotalResponses: 50, UpdatedAt: now, FollowerCount: 20}
	assert.InDelta(t, 61.0, Score(s, now), 1e-9)

	stale := Signals{TotalResponses: 4, UpdatedAt: now.AddDate(0, -3, 0)}
	assert.InDelta(t, 2.0, Score(stale, now), 1e-9)
}

func TestRankOrdersAndTruncates(t *testing.T) {
	old := now.AddDate(0, -2, 0)
	candidates := []Candidate{
		{ID: "quiet", Signals: Signals{TotalResponses: 2, UpdatedAt: old}},
		{ID: "hot", Signals: Signals{RecentResponses: 30, TotalResponses: 40, UpdatedAt: now}},
		{ID: "steady", Signals: Signals{TotalResponses: 100, UpdatedAt: old}},
		{ID: "followed", Signals: Signals{FollowerCount: 100, UpdatedAt: old}},
	}

	ranked := Rank(candidates, 3, now)
	require.Len(t, ranked, 3)
	assert.Equal(t, "hot", ranked[0].ID)
	assert.Equal(t, "steady", ranked[1].ID)
	assert.Equal(t, "followed", ranked[2].ID)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankStableTies(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, Candidate{
			ID:      fmt.Sprintf("p%d", i),
			Signals: Signals{TotalResponses: 10, UpdatedAt: now},
		})
	}

	ranked := Rank(candidates, 10, now)
	require.Len(t, ranked, 5)
	for i, r := range ranked {
		assert.Equal(t, fmt.Sprintf("p%d", i), r.ID)
	}
}

func TestRankLength(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 9; i++ {
		candidates = append(candidates, Candidate{ID: fmt.Sprint(i), Signals: Signals{UpdatedAt: now}})
	}

	assert.Len(t, Rank(candidates, 0, now), DefaultLimit)
	assert.Len(t, Rank(candidates, 4, now), 4)
	assert.Len(t, Rank(candidates[:2], 6, now), 2)
	assert.Empty(t, Rank(nil, 6, now))
}
