package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/playsignal/internal/store"
	"github.com/elonfeng/playsignal/pkg/score"
)

var now = time.Date(2026, time.June, 30, 18, 0, 0, 0, time.UTC)

type stubStore struct {
	projects  []store.Project
	stats     map[string][]store.Stat
	answers   map[string][]score.Answer
	responses map[string][]time.Time
	follows   map[string][]time.Time
	updates   map[string][]time.Time
	failStats error
}

func (s *stubStore) GetProject(ctx context.Context, id string) (*store.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", id, store.ErrNotFound)
}

func (s *stubStore) GetProjectBySlug(ctx context.Context, slug string) (*store.Project, error) {
	for _, p := range s.projects {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", slug, store.ErrNotFound)
}

func (s *stubStore) ListProjects(ctx context.Context, opts store.ProjectListOpts) ([]store.Project, error) {
	var out []store.Project
	for _, p := range s.projects {
		if opts.PublicOnly && !p.Public {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubStore) ListStats(ctx context.Context, projectID string) ([]store.Stat, error) {
	if s.failStats != nil {
		return nil, s.failStats
	}
	return s.stats[projectID], nil
}

func (s *stubStore) ListAnswers(ctx context.Context, projectID string) ([]score.Answer, error) {
	return s.answers[projectID], nil
}

func (s *stubStore) ListResponseTimes(ctx context.Context, projectID string, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, ts := range s.responses[projectID] {
		if !ts.Before(since) {
			out = append(out, ts)
		}
	}
	return out, nil
}

func (s *stubStore) ListFollowTimes(ctx context.Context, projectID string) ([]time.Time, error) {
	return s.follows[projectID], nil
}

func (s *stubStore) ListUpdateTimes(ctx context.Context, projectID string) ([]time.Time, error) {
	return s.updates[projectID], nil
}

func (s *stubStore) ResponseCounts(ctx context.Context, since time.Time) ([]store.ResponseCount, error) {
	var out []store.ResponseCount
	for id, times := range s.responses {
		c := store.ResponseCount{ProjectID: id, Total: len(times)}
		for _, ts := range times {
			if !ts.Before(since) {
				c.Recent++
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *stubStore) FollowerCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for id, times := range s.follows {
		out[id] = len(times)
	}
	return out, nil
}

func (s *stubStore) LatestUpdates(ctx context.Context) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	for id, times := range s.updates {
		for _, ts := range times {
			if ts.After(out[id]) {
				out[id] = ts
			}
		}
	}
	return out, nil
}

// daysAgo returns n timestamps spread over the given day offset.
func daysAgo(day, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = now.AddDate(0, 0, -day).Add(-time.Duration(i) * time.Minute)
	}
	return out
}

func fixture() *stubStore {
	var moonlitResponses []time.Time
	moonlitResponses = append(moonlitResponses, daysAgo(29, 10)...) // first week of the window
	moonlitResponses = append(moonlitResponses, daysAgo(1, 21)...)  // last week
	moonlitResponses = append(moonlitResponses, daysAgo(90, 4)...)  // outside the window

	return &stubStore{
		projects: []store.Project{
			{ID: "p1", Slug: "moonlit", Name: "Moonlit", Public: true, UpdatedAt: now.AddDate(0, 0, -40)},
			{ID: "p2", Slug: "ember", Name: "Ember", Public: true, UpdatedAt: now},
			{ID: "p3", Slug: "hidden", Name: "Hidden", Public: false, UpdatedAt: now},
		},
		stats: map[string][]store.Stat{
			"p1": {
				{ID: "fun", ProjectID: "p1", Name: "Fun", Category: "Gameplay", MinValue: 1, MaxValue: 10, Weight: 1},
				{ID: "ctl", ProjectID: "p1", Name: "Controls", Category: "Gameplay", MinValue: 1, MaxValue: 5, Weight: 1},
				{ID: "art", ProjectID: "p1", Name: "Art", Category: "Visuals", MinValue: 0, MaxValue: 100, Weight: 1},
				{ID: "snd", ProjectID: "p1", Name: "Sound", MinValue: 1, MaxValue: 5, Weight: 1},
			},
		},
		answers: map[string][]score.Answer{
			"p1": {
				{StatID: "fun", Value: 7}, {StatID: "fun", Value: 8}, {StatID: "fun", Value: 9},
				{StatID: "ctl", Value: 2}, {StatID: "ctl", Value: 3},
				{StatID: "art", Value: 40},
			},
		},
		responses: map[string][]time.Time{
			"p1": moonlitResponses,
			"p2": daysAgo(3, 5),
		},
		follows: map[string][]time.Time{
			"p1": daysAgo(10, 3),
			"p3": daysAgo(1, 50),
		},
		updates: map[string][]time.Time{
			"p1": {now.AddDate(0, 0, -2)},
		},
	}
}

func newService(s Store) *Service {
	svc := New(s, Options{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestProjectAnalytics(t *testing.T) {
	svc := newService(fixture())

	report, err := svc.ProjectAnalytics(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "Moonlit", report.Project.Name)
	assert.Equal(t, 35, report.TotalResponses)
	require.Len(t, report.Stats, 4)
	assert.Equal(t, 8.0, report.Stats[0].RawAverage)
	assert.Equal(t, 0, report.Stats[3].Count)

	require.Len(t, report.Categories, 2)
	// Fun 77.8 and Controls 37.5
	assert.Equal(t, score.CategoryAggregate{Category: "Gameplay", Score: 58, StatCount: 2}, report.Categories[0])
	assert.Equal(t, score.CategoryAggregate{Category: "Visuals", Score: 40, StatCount: 1}, report.Categories[1])

	require.Len(t, report.Daily, 30)
	assert.Equal(t, 31, report.Daily.Total())

	assert.Equal(t, []string{
		`"Fun" is your highest rated stat at 78%`,
		`"Controls" needs attention - only 38%`,
		"Gameplay scores 18% higher than Visuals",
		"Response rate increased 110% this week",
	}, report.Insights)
}

func TestProjectAnalyticsEmptyProject(t *testing.T) {
	svc := newService(fixture())

	report, err := svc.ProjectAnalytics(context.Background(), "p2")
	require.NoError(t, err)
	assert.Empty(t, report.Stats)
	assert.Empty(t, report.Categories)
	assert.Len(t, report.Daily, 30)
	assert.Empty(t, report.Insights)
}

func TestProjectAnalyticsErrors(t *testing.T) {
	s := fixture()
	svc := newService(s)

	_, err := svc.ProjectAnalytics(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	s.answers["p1"] = append(s.answers["p1"], score.Answer{StatID: "other-project", Value: 1})
	_, err = svc.ProjectAnalytics(context.Background(), "p1")
	assert.ErrorIs(t, err, score.ErrUnknownStat)

	boom := errors.New("disk on fire")
	s.failStats = boom
	_, err = svc.ProjectAnalytics(context.Background(), "p1")
	assert.ErrorIs(t, err, boom)
}

func TestProgressBoard(t *testing.T) {
	svc := newService(fixture())

	board, err := svc.ProgressBoard(context.Background(), "moonlit")
	require.NoError(t, err)
	assert.Equal(t, 35, board.TotalResponses)
	assert.Equal(t, 3, board.Followers)
	assert.Len(t, board.Stats, 3)
	assert.Len(t, board.WeeklyFollows, 1)
	assert.Len(t, board.WeeklyUpdates, 1)
	assert.Equal(t, 35, board.WeeklyResponses.Total())
	for i := 1; i < len(board.WeeklyResponses); i++ {
		assert.True(t, board.WeeklyResponses[i-1].Start.Before(board.WeeklyResponses[i].Start))
	}

	_, err = svc.ProgressBoard(context.Background(), "hidden")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDiscover(t *testing.T) {
	svc := newService(fixture())

	// moonlit: 31*2 + 35*0.5 + 28/30*10 + 3*0.3 = 89.73
	// ember:    5*2 +  5*0.5 + 10           = 22.5
	scored, err := svc.DiscoverScored(context.Background())
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "moonlit", scored[0].Slug)
	assert.InDelta(t, 89.733, scored[0].Score, 0.001)
	assert.Equal(t, "ember", scored[1].Slug)
	assert.InDelta(t, 22.5, scored[1].Score, 0.001)

	cards, err := svc.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, Card{ID: "p1", Slug: "moonlit", Name: "Moonlit"}, cards[0])
}

func TestDiscoverLimit(t *testing.T) {
	s := &stubStore{}
	for i := 0; i < 10; i++ {
		s.projects = append(s.projects, store.Project{ID: fmt.Sprint(i), Public: true, UpdatedAt: now})
	}
	svc := New(s, Options{TrendingLimit: 4})

	cards, err := svc.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, cards, 4)
}

func TestConcurrentRequests(t *testing.T) {
	svc := newService(fixture())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := svc.ProjectAnalytics(context.Background(), "p1")
			assert.NoError(t, err)
			assert.Len(t, report.Insights, 4)
		}()
	}
	wg.Wait()
}
