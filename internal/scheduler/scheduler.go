package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/elonfeng/playsignal/internal/analytics"
	"github.com/elonfeng/playsignal/internal/store"
	"github.com/elonfeng/playsignal/pkg/alert"
	"github.com/elonfeng/playsignal/pkg/source"
)

// Store is the persistence the scheduler needs.
type Store interface {
	ListProjects(ctx context.Context, opts store.ProjectListOpts) ([]store.Project, error)
	UpsertUpdate(ctx context.Context, u *source.Update) error
	AlertSent(ctx context.Context, fingerprint string) (bool, error)
	MarkAlertSent(ctx context.Context, fingerprint, projectID, insight string) error
}

// Reporter builds a project's analytics view.
type Reporter interface {
	ProjectAnalytics(ctx context.Context, projectID string) (*analytics.ProjectReport, error)
}

// Scheduler runs periodic devlog collection and insight alerting.
type Scheduler struct {
	store      Store
	source     source.Source
	reporter   Reporter
	alertMgr   *alert.Manager
	publicURL  string
	collectInt time.Duration
	insightInt time.Duration
}

// New creates a new scheduler. A nil source disables collection.
func New(
	s Store,
	src source.Source,
	reporter Reporter,
	alertMgr *alert.Manager,
	publicURL string,
	collectInt, insightInt time.Duration,
) *Scheduler {
	if collectInt == 0 {
		collectInt = time.Hour
	}
	if insightInt == 0 {
		insightInt = 6 * time.Hour
	}
	return &Scheduler{
		store:      s,
		source:     src,
		reporter:   reporter,
		alertMgr:   alertMgr,
		publicURL:  strings.TrimRight(publicURL, "/"),
		collectInt: collectInt,
		insightInt: insightInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	collectTicker := time.NewTicker(s.collectInt)
	insightTicker := time.NewTicker(s.insightInt)
	defer collectTicker.Stop()
	defer insightTicker.Stop()

	fmt.Fprintln(os.Stderr, "scheduler: initial devlog collection...")
	s.logCollect(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial insight pass...")
	s.logAlert(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (collect every %s, insights every %s)\n",
		s.collectInt, s.insightInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-collectTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: collecting devlogs...")
			s.logCollect(ctx)
		case <-insightTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: checking insights...")
			s.logAlert(ctx)
		}
	}
}

func (s *Scheduler) logCollect(ctx context.Context) {
	n, err := s.Collect(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  collect error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  total: %d updates\n", n)
}

func (s *Scheduler) logAlert(ctx context.Context) {
	n, err := s.Alert(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  insight error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  alerted: %d projects\n", n)
}

// Collect fetches the devlog of every project that has a feed and stores the
// updates. It returns the number of updates stored.
func (s *Scheduler) Collect(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, nil
	}

	projects, err := s.store.ListProjects(ctx, store.ProjectListOpts{WithFeed: true})
	if err != nil {
		return 0, fmt.Errorf("list feed projects: %w", err)
	}
	feeds := make([]source.Feed, len(projects))
	for i, p := range projects {
		feeds[i] = source.Feed{ProjectID: p.ID, Name: p.Slug, URL: p.FeedURL}
	}

	updates, err := s.source.Collect(ctx, feeds)
	if err != nil {
		return 0, fmt.Errorf("collect %s: %w", s.source.Name(), err)
	}

	stored := 0
	for i := range updates {
		if err := s.store.UpsertUpdate(ctx, &updates[i]); err != nil {
			fmt.Fprintf(os.Stderr, "  %s store error: %v\n", s.source.Name(), err)
			continue
		}
		stored++
	}
	return stored, nil
}

// Alert generates insights for every project and broadcasts the ones not
// alerted before, one notification per project. It returns the number of
// projects alerted.
func (s *Scheduler) Alert(ctx context.Context) (int, error) {
	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return 0, nil
	}

	projects, err := s.store.ListProjects(ctx, store.ProjectListOpts{})
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	alerted := 0
	for _, p := range projects {
		report, err := s.reporter.ProjectAnalytics(ctx, p.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  analytics error for %s: %v\n", p.Slug, err)
			continue
		}

		var fresh, prints []string
		for _, text := range report.Insights {
			fp := Fingerprint(p.ID, text)
			sent, err := s.store.AlertSent(ctx, fp)
			if err != nil {
				return alerted, fmt.Errorf("check alert %s: %w", p.Slug, err)
			}
			if !sent {
				fresh = append(fresh, text)
				prints = append(prints, fp)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		n := &alert.Notification{
			ProjectID: p.ID,
			Project:   p.Name,
			Insights:  fresh,
		}
		if s.publicURL != "" && p.Public {
			n.URL = s.publicURL + "/api/v1/boards/" + p.Slug
		}

		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			fmt.Fprintf(os.Stderr, "  alert error for %s: %v\n", p.Slug, err)
			continue
		}

		for i, fp := range prints {
			_ = s.store.MarkAlertSent(ctx, fp, p.ID, fresh[i])
		}
		alerted++
		fmt.Fprintf(os.Stderr, "  alerted: %s (%d insights)\n", p.Slug, len(fresh))
	}
	return alerted, nil
}

// Fingerprint identifies an insight of a project across runs.
func Fingerprint(projectID, insight string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(projectID+"\x00"+insight))
}
