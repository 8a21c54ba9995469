package store

import (
	"context"
	"fmt"
	"time"

	"github.com/elonfeng/playsignal/pkg/source"
)

// AddFollow records that followerID follows a project. Following twice is a
// no-op.
func (s *SQLiteStore) AddFollow(ctx context.Context, projectID, followerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO follows (project_id, follower_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id, follower_id) DO NOTHING
	`, projectID, followerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add follow %s: %w", projectID, err)
	}
	return nil
}

func (s *SQLiteStore) ListFollowTimes(ctx context.Context, projectID string) ([]time.Time, error) {
	var times []time.Time
	err := s.db.SelectContext(ctx, &times,
		"SELECT created_at FROM follows WHERE project_id = ? ORDER BY created_at", projectID)
	if err != nil {
		return nil, fmt.Errorf("list follow times %s: %w", projectID, err)
	}
	return times, nil
}

func (s *SQLiteStore) FollowerCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT project_id, COUNT(*) AS cnt FROM follows GROUP BY project_id")
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var cnt int
		if err := rows.Scan(&id, &cnt); err != nil {
			return nil, err
		}
		counts[id] = cnt
	}
	return counts, rows.Err()
}

// UpsertUpdate stores a devlog entry. Entries are unique per project and
// guid; a repeated entry only refreshes its title and link.
func (s *SQLiteStore) UpsertUpdate(ctx context.Context, u *source.Update) error {
	if u.CollectedAt.IsZero() {
		u.CollectedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_updates (project_id, guid, title, url, published_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, guid) DO UPDATE SET
			title = excluded.title,
			url = excluded.url
	`, u.ProjectID, u.GUID, u.Title, u.URL, u.PublishedAt.UTC(), u.CollectedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert update %s: %w", u.GUID, err)
	}
	return nil
}

func (s *SQLiteStore) ListUpdateTimes(ctx context.Context, projectID string) ([]time.Time, error) {
	var times []time.Time
	err := s.db.SelectContext(ctx, &times,
		"SELECT published_at FROM project_updates WHERE project_id = ? ORDER BY published_at", projectID)
	if err != nil {
		return nil, fmt.Errorf("list update times %s: %w", projectID, err)
	}
	return times, nil
}

// LatestUpdates returns the newest devlog publish time per project.
func (s *SQLiteStore) LatestUpdates(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT u.project_id, u.published_at
		FROM project_updates u
		WHERE u.published_at = (
			SELECT MAX(published_at) FROM project_updates WHERE project_id = u.project_id
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("latest updates: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan latest update: %w", err)
		}
		latest[id] = at
	}
	return latest, rows.Err()
}

func (s *SQLiteStore) AlertSent(ctx context.Context, fingerprint string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM insight_alerts WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return false, fmt.Errorf("check alert %s: %w", fingerprint, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) MarkAlertSent(ctx context.Context, fingerprint, projectID, insight string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insight_alerts (fingerprint, project_id, insight, alerted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fingerprint, projectID, insight, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark alert %s: %w", fingerprint, err)
	}
	return nil
}
