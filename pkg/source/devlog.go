package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
)

// Devlog collects project updates from RSS/Atom devlog feeds.
type Devlog struct {
	client *http.Client
	parser *gofeed.Parser
	now    func() time.Time
}

// NewDevlog creates a new devlog collector.
func NewDevlog(timeout time.Duration) *Devlog {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Devlog{
		client: &http.Client{Timeout: timeout},
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

func (d *Devlog) Name() string { return "devlog" }

// Collect fetches every feed. A failing feed is reported and skipped so one
// broken devlog does not hide the others.
func (d *Devlog) Collect(ctx context.Context, feeds []Feed) ([]Update, error) {
	var all []Update
	for _, feed := range feeds {
		updates, err := d.collectFeed(ctx, feed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  devlog %s error: %v\n", feed.Name, err)
			continue
		}
		all = append(all, updates...)
	}
	return all, nil
}

func (d *Devlog) collectFeed(ctx context.Context, feed Feed) ([]Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create devlog request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "playsignal/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch devlog %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("devlog %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := d.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse devlog %s: %w", feed.Name, err)
	}

	collected := d.now().UTC()
	updates := make([]Update, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		published := collected
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		guid := entry.GUID
		if guid == "" {
			guid = link
		}
		if guid == "" {
			continue
		}

		updates = append(updates, Update{
			ProjectID:   feed.ProjectID,
			GUID:        guid,
			Title:       entry.Title,
			URL:         link,
			PublishedAt: published,
			CollectedAt: collected,
		})
	}
	return updates, nil
}
