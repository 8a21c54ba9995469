// Package analytics loads a project's records and runs them through the
// scoring engine for the analytics view, the public progress board and the
// discovery feed.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/elonfeng/playsignal/internal/store"
	"github.com/elonfeng/playsignal/pkg/bucket"
	"github.com/elonfeng/playsignal/pkg/insight"
	"github.com/elonfeng/playsignal/pkg/score"
)

// Store is the subset of persistence the service reads from.
type Store interface {
	GetProject(ctx context.Context, id string) (*store.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*store.Project, error)
	ListProjects(ctx context.Context, opts store.ProjectListOpts) ([]store.Project, error)
	ListStats(ctx context.Context, projectID string) ([]store.Stat, error)
	ListAnswers(ctx context.Context, projectID string) ([]score.Answer, error)
	ListResponseTimes(ctx context.Context, projectID string, since time.Time) ([]time.Time, error)
	ListFollowTimes(ctx context.Context, projectID string) ([]time.Time, error)
	ListUpdateTimes(ctx context.Context, projectID string) ([]time.Time, error)
	ResponseCounts(ctx context.Context, since time.Time) ([]store.ResponseCount, error)
	FollowerCounts(ctx context.Context) (map[string]int, error)
	LatestUpdates(ctx context.Context) (map[string]time.Time, error)
}

// Options sizes the windows used by the service.
type Options struct {
	WindowDays    int
	RecentDays    int
	WeeklyLimit   int
	TrendingLimit int
}

// Service computes request-scoped aggregates. It holds no mutable state and
// is safe for concurrent use.
type Service struct {
	store Store
	opts  Options
	now   func() time.Time
}

// New creates a new analytics service. Zero options take their defaults.
func New(s Store, opts Options) *Service {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = 30
	}
	if opts.WeeklyLimit <= 0 {
		opts.WeeklyLimit = bucket.DefaultWeeks
	}
	if opts.TrendingLimit <= 0 {
		opts.TrendingLimit = 6
	}
	return &Service{store: s, opts: opts, now: time.Now}
}

// ProjectReport is the owner-facing analytics view of one project.
type ProjectReport struct {
	Project        store.Project             `json:"project"`
	TotalResponses int                       `json:"total_responses"`
	Stats          []score.StatAggregate     `json:"stats"`
	Categories     []score.CategoryAggregate `json:"categories"`
	Daily          bucket.Series             `json:"daily_responses"`
	Insights       []string                  `json:"insights"`
}

// ProjectAnalytics builds the analytics view of a project.
func (s *Service) ProjectAnalytics(ctx context.Context, projectID string) (*ProjectReport, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rec, err := s.loadScores(ctx, project.ID, nil)
	if err != nil {
		return nil, err
	}

	daily := bucket.DailyWindow(rec.responses, s.opts.WindowDays, s.now())
	return &ProjectReport{
		Project:        *project,
		TotalResponses: len(rec.responses),
		Stats:          rec.stats,
		Categories:     rec.categories,
		Daily:          daily,
		Insights:       insight.Generate(rec.stats, rec.categories, daily),
	}, nil
}

// Board is the public, shareable progress view of a project.
type Board struct {
	Project         store.Project             `json:"project"`
	TotalResponses  int                       `json:"total_responses"`
	Followers       int                       `json:"followers"`
	Stats           []score.StatAggregate     `json:"stats"`
	Categories      []score.CategoryAggregate `json:"categories"`
	WeeklyResponses bucket.Series             `json:"weekly_responses"`
	WeeklyFollows   bucket.Series             `json:"weekly_follows"`
	WeeklyUpdates   bucket.Series             `json:"weekly_updates"`
}

// ProgressBoard builds the public board of a project. Private projects are
// reported as not found.
func (s *Service) ProgressBoard(ctx context.Context, slug string) (*Board, error) {
	project, err := s.store.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !project.Public {
		return nil, fmt.Errorf("board %s: %w", slug, store.ErrNotFound)
	}

	var follows, updates []time.Time
	rec, err := s.loadScores(ctx, project.ID, func(p *pool.ContextPool) {
		p.Go(func(ctx context.Context) error {
			var err error
			follows, err = s.store.ListFollowTimes(ctx, project.ID)
			return err
		})
		p.Go(func(ctx context.Context) error {
			var err error
			updates, err = s.store.ListUpdateTimes(ctx, project.ID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	weekly := bucket.Weekly{Limit: s.opts.WeeklyLimit}
	return &Board{
		Project:         *project,
		TotalResponses:  len(rec.responses),
		Followers:       len(follows),
		Stats:           score.ScoredOnly(rec.stats),
		Categories:      rec.categories,
		WeeklyResponses: weekly.Bucket(rec.responses),
		WeeklyFollows:   weekly.Bucket(follows),
		WeeklyUpdates:   weekly.Bucket(updates),
	}, nil
}

type scoredRecords struct {
	stats      []score.StatAggregate
	categories []score.CategoryAggregate
	responses  []time.Time
}

// loadScores reads a project's stats, answers and response times in
// parallel, plus whatever extra loads the caller schedules, then aggregates.
func (s *Service) loadScores(ctx context.Context, projectID string, extra func(*pool.ContextPool)) (*scoredRecords, error) {
	var (
		stats     []store.Stat
		answers   []score.Answer
		responses []time.Time
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		stats, err = s.store.ListStats(ctx, projectID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		answers, err = s.store.ListAnswers(ctx, projectID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		responses, err = s.store.ListResponseTimes(ctx, projectID, time.Time{})
		return err
	})
	if extra != nil {
		extra(p)
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}

	defs := make([]score.Stat, len(stats))
	for i, st := range stats {
		defs[i] = st.Score()
	}
	aggs, err := score.AggregateStats(defs, answers)
	if err != nil {
		return nil, fmt.Errorf("aggregate project %s: %w", projectID, err)
	}

	return &scoredRecords{
		stats:      aggs,
		categories: score.ComposeCategories(aggs),
		responses:  responses,
	}, nil
}
