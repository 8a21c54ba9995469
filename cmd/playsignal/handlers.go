package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/elonfeng/playsignal/internal/analytics"
	"github.com/elonfeng/playsignal/internal/catalog"
	"github.com/elonfeng/playsignal/internal/config"
	"github.com/elonfeng/playsignal/internal/scheduler"
	"github.com/elonfeng/playsignal/internal/store"
	"github.com/elonfeng/playsignal/pkg/alert"
	"github.com/elonfeng/playsignal/pkg/server"
	"github.com/elonfeng/playsignal/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// open loads config and opens the store. Callers close the store.
func open() (*config.Config, *store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, db, nil
}

func buildService(cfg *config.Config, db store.Store) *analytics.Service {
	return analytics.New(db, analytics.Options{
		WindowDays:    cfg.Analytics.WindowDays,
		RecentDays:    cfg.Analytics.RecentDays,
		WeeklyLimit:   cfg.Analytics.WeeklyLimit,
		TrendingLimit: cfg.Analytics.TrendingLimit,
	})
}

func buildSource(cfg *config.Config) source.Source {
	if !cfg.Feeds.Enabled {
		return nil
	}
	return source.NewDevlog(cfg.Feeds.ParseTimeout())
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func buildScheduler(cfg *config.Config, db store.Store) *scheduler.Scheduler {
	return scheduler.New(db, buildSource(cfg), buildService(cfg, db), buildAlertManager(cfg),
		cfg.Server.PublicURL,
		cfg.Schedule.ParseCollectInterval(),
		cfg.Schedule.ParseInsightInterval(),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runImport(ctx context.Context, w io.Writer, path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}

	_, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	projects, err := c.Apply(ctx, db)
	if err != nil {
		return fmt.Errorf("apply catalog: %w", err)
	}

	if jsonOutput {
		return writeJSON(w, projects)
	}
	renderProjects(w, projects)
	return nil
}

func runAnalytics(ctx context.Context, w io.Writer, projectID string) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := buildService(cfg, db).ProjectAnalytics(ctx, projectID)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, report)
	}
	renderReport(w, report)
	return nil
}

func runBoard(ctx context.Context, w io.Writer, slug string) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	board, err := buildService(cfg, db).ProgressBoard(ctx, slug)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, board)
	}
	renderBoard(w, board)
	return nil
}

func runTrending(ctx context.Context, w io.Writer) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	scored, err := buildService(cfg, db).DiscoverScored(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, scored)
	}
	if len(scored) == 0 {
		fmt.Fprintln(w, "no public projects yet (try: playsignal import catalog.yaml)")
		return nil
	}
	renderTrending(w, scored)
	return nil
}

func runCollect(ctx context.Context) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.Feeds.Enabled {
		fmt.Fprintln(os.Stderr, "devlog feeds are disabled in config")
		return nil
	}

	n, err := buildScheduler(cfg, db).Collect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "total: %d updates\n", n)
	return nil
}

func runServe(port int) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.New(db, buildService(cfg, db), port).ListenAndServe(ctx)
}

func runDaemon(port int) error {
	cfg, db, err := open()
	if err != nil {
		return err
	}
	defer db.Close()

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := buildScheduler(cfg, db)
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return server.New(db, buildService(cfg, db), port).ListenAndServe(ctx)
}
