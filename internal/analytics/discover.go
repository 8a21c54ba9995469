package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/elonfeng/playsignal/internal/store"
	"github.com/elonfeng/playsignal/pkg/trend"
)

// Card is the public summary of a trending project. It carries no ranking
// figures.
type Card struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Discover ranks public projects by trending score and returns the top
// cards, most trending first.
func (s *Service) Discover(ctx context.Context) ([]Card, error) {
	ranked, projects, err := s.rank(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(ranked))
	for _, r := range ranked {
		p := projects[r.ID]
		cards = append(cards, Card{
			ID:          p.ID,
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
		})
	}
	return cards, nil
}

// Scored is a trending project with the figures that ranked it.
type Scored struct {
	Card
	trend.Signals
	Score float64 `json:"score"`
}

// DiscoverScored is Discover with the ranking figures kept, for operators.
func (s *Service) DiscoverScored(ctx context.Context) ([]Scored, error) {
	ranked, projects, err := s.rank(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Scored, 0, len(ranked))
	for _, r := range ranked {
		p := projects[r.ID]
		out = append(out, Scored{
			Card:    Card{ID: p.ID, Slug: p.Slug, Name: p.Name, Description: p.Description},
			Signals: r.Signals,
			Score:   r.Score,
		})
	}
	return out, nil
}

func (s *Service) rank(ctx context.Context) ([]trend.Ranked, map[string]store.Project, error) {
	now := s.now()

	var (
		projects  []store.Project
		responses []store.ResponseCount
		followers map[string]int
		latest    map[string]time.Time
	)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		projects, err = s.store.ListProjects(ctx, store.ProjectListOpts{PublicOnly: true})
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		responses, err = s.store.ResponseCounts(ctx, now.AddDate(0, 0, -s.opts.RecentDays))
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		followers, err = s.store.FollowerCounts(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		latest, err = s.store.LatestUpdates(ctx)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load discovery records: %w", err)
	}

	counts := make(map[string]store.ResponseCount, len(responses))
	for _, c := range responses {
		counts[c.ProjectID] = c
	}

	byID := make(map[string]store.Project, len(projects))
	candidates := make([]trend.Candidate, 0, len(projects))
	for _, proj := range projects {
		byID[proj.ID] = proj

		// A devlog post counts as an update as much as an edit does.
		updatedAt := proj.UpdatedAt
		if u, ok := latest[proj.ID]; ok && u.After(updatedAt) {
			updatedAt = u
		}

		candidates = append(candidates, trend.Candidate{
			ID: proj.ID,
			Signals: trend.Signals{
				RecentResponses: counts[proj.ID].Recent,
				TotalResponses:  counts[proj.ID].Total,
				UpdatedAt:       updatedAt,
				FollowerCount:   followers[proj.ID],
			},
		})
	}

	return trend.Rank(candidates, s.opts.TrendingLimit, now), byID, nil
}
